// Package txn wraps MongoDB session features that only some deployments
// support, falling back to plain reads where the server refuses them.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the server cannot run the
// requested session feature (standalone server, old version, etc.).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation
			51,  // standalone / "transaction numbers are only allowed on a replica set member"
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Reader runs groups of reads, at snapshot isolation when the deployment
// allows it.
type Reader struct {
	client   *mongo.Client
	snapshot bool
	log      *zap.Logger
}

// NewReader returns a Reader. With snapshot=false every call runs the reads
// directly on ctx.
func NewReader(client *mongo.Client, snapshot bool, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{client: client, snapshot: snapshot && client != nil, log: log}
}

// Read runs fn. When snapshot reads are enabled fn receives a session context
// so every read inside sees the same point in time. If the server refuses
// snapshot sessions fn is retried on the plain context.
func (r *Reader) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.snapshot {
		return fn(ctx)
	}

	sess, err := r.client.StartSession(options.Session().SetSnapshot(true))
	if err != nil {
		if snapshotRefused(err) {
			r.log.Warn("snapshot sessions unavailable, reading without isolation", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		return fn(sc)
	})
	if err != nil && snapshotRefused(err) {
		r.log.Warn("snapshot read refused, retrying without isolation", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// snapshotRefused widens IsNotSupported with the ways a server (or the
// driver, for pre-5.0 servers) rejects snapshot reads.
func snapshotRefused(err error) bool {
	if IsNotSupported(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 72 { // InvalidOptions
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "snapshot")
}
