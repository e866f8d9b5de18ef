package mint

import (
	"context"

	"github.com/rs/zerolog"
)

// step 一对前进/补偿动作；compensate 为 nil 表示无需补偿
type step struct {
	state      State
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// compensation 单次补偿的执行结果
type compensation struct {
	state State
	err   error
}

// saga 顺序执行步骤；某步失败时按逆序补偿已完成的步骤，每步至多补偿一次
type saga struct {
	logger zerolog.Logger
	steps  []step
}

func (s *saga) add(st step) {
	s.steps = append(s.steps, st)
}

// run 返回原始错误与补偿结果；补偿失败不会覆盖原始错误
func (s *saga) run(ctx context.Context) ([]compensation, error) {
	done := make([]step, 0, len(s.steps))

	for _, st := range s.steps {
		s.logger.Info().Str("state", string(st.state)).Msg("Mint saga transition")

		if err := st.forward(ctx); err != nil {
			return s.rollback(ctx, done), err
		}
		done = append(done, st)
	}
	return nil, nil
}

func (s *saga) rollback(ctx context.Context, done []step) []compensation {
	var results []compensation

	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.compensate == nil {
			continue
		}

		s.logger.Info().Str("state", string(StateCompensating)).Str("undo", string(st.state)).Msg("Mint saga transition")
		// 调用方取消时补偿仍需执行
		err := st.compensate(context.WithoutCancel(ctx))
		if err != nil {
			s.logger.Error().Err(err).Str("undo", string(st.state)).Msg("Compensation failed")
		}
		results = append(results, compensation{state: st.state, err: err})
	}
	return results
}
