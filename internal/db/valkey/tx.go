package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/serendip/internal/db"
)

// Exec applies ops atomically inside MULTI/EXEC on a single connection.
func (s *Store) Exec(ctx context.Context, ops []db.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(ops)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for i := range ops {
		cmd, err := s.writeCmd(&ops[i])
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	if len(results) == 0 {
		return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
	}

	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
		}
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i := range replies {
		if err := replies[i].Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("op %d on %s: %w", i, ops[i].Key, err)}
		}
	}
	return nil
}

func (s *Store) writeCmd(op *db.WriteOp) (rueidis.Completed, error) {
	switch op.Kind {
	case db.WriteHSet:
		if len(op.Fields) == 0 {
			return rueidis.Completed{}, fmt.Errorf("hset %s: no fields", op.Key)
		}
		return s.hsetCmd(op.Key, op.Fields), nil
	case db.WriteSAdd:
		if len(op.Members) == 0 {
			return rueidis.Completed{}, fmt.Errorf("sadd %s: no members", op.Key)
		}
		return s.b().Sadd().Key(op.Key).Member(op.Members...).Build(), nil
	case db.WriteZAdd:
		if len(op.Members) != 1 {
			return rueidis.Completed{}, fmt.Errorf("zadd %s: exactly one member required", op.Key)
		}
		return s.b().Zadd().Key(op.Key).ScoreMember().ScoreMember(op.Score, op.Members[0]).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unsupported write op %d", op.Kind)
	}
}
