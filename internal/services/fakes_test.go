package services

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Corphon/TubeScribe/internal/catalog"
)

// mockOracle 基于 testify/mock 的 Oracle
type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) GenerateText(ctx context.Context, purpose string, prompt Prompt) (string, error) {
	args := m.Called(ctx, purpose, prompt)
	return args.String(0), args.Error(1)
}

type oracleCall struct {
	Purpose string
	Prompt  Prompt
}

type oracleReply struct {
	text string
	err  error
}

// scriptedOracle 按用途返回预设结果并记录调用顺序。
// blockOn 中的用途会在 entered 上发信号，然后阻塞到 release 关闭或 ctx 结束
type scriptedOracle struct {
	mu      sync.Mutex
	replies map[string]oracleReply
	calls   []oracleCall

	blockOn map[string]bool
	entered chan string
	release chan struct{}
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		replies: make(map[string]oracleReply),
		blockOn: make(map[string]bool),
		entered: make(chan string, 8),
		release: make(chan struct{}),
	}
}

func (o *scriptedOracle) reply(purpose, text string) *scriptedOracle {
	o.replies[purpose] = oracleReply{text: text}
	return o
}

func (o *scriptedOracle) fail(purpose string, err error) *scriptedOracle {
	o.replies[purpose] = oracleReply{err: err}
	return o
}

func (o *scriptedOracle) block(purpose string) *scriptedOracle {
	o.blockOn[purpose] = true
	return o
}

func (o *scriptedOracle) GenerateText(ctx context.Context, purpose string, prompt Prompt) (string, error) {
	o.mu.Lock()
	o.calls = append(o.calls, oracleCall{Purpose: purpose, Prompt: prompt})
	r, ok := o.replies[purpose]
	blocking := o.blockOn[purpose]
	o.mu.Unlock()

	if blocking {
		o.entered <- purpose
		select {
		case <-o.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", errors.New("no scripted reply for " + purpose)
	}
	return r.text, r.err
}

func (o *scriptedOracle) Calls() []oracleCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]oracleCall(nil), o.calls...)
}

func (o *scriptedOracle) Purposes() []string {
	var out []string
	for _, c := range o.Calls() {
		out = append(out, c.Purpose)
	}
	return out
}

func newTestWorkspace(oracle Oracle) *Workspace {
	cat := catalog.MustDefault()
	return NewWorkspace("test-session", NewGenerationService(oracle, cat), NewTranslationService(oracle, cat))
}
