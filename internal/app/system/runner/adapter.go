// internal/app/system/runner/adapter.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	noOutput = "Code executed successfully (no output)"

	placeholderBody = " execution requires a backend runtime.\n\n" +
		"To run this code:\n" +
		"1. Copy it to a local environment\n" +
		"2. Or integrate with a code execution API\n\n"

	personalTail = "Code saved to your workspace."
	groupTail    = "Your code has been saved to the group."
)

// Adapter dispatches a run to the strategy registered for its language.
// It is safe for concurrent use once built.
type Adapter struct {
	strategies map[models.Language]Strategy
	log        *zap.Logger
}

// NewAdapter returns an adapter that runs JavaScript with a goja engine
// bounded by timeout (0 disables the limit) and answers every other
// supported language with a placeholder.
func NewAdapter(timeout time.Duration, log *zap.Logger) *Adapter {
	a := &Adapter{strategies: map[models.Language]Strategy{}, log: log}
	for _, lang := range models.Languages() {
		a.strategies[lang] = Placeholder{}
	}
	a.strategies[models.LanguageJavaScript] = Executable{Engine: NewJSEngine(timeout)}
	return a
}

// Register replaces the strategy for lang.
func (a *Adapter) Register(lang models.Language, s Strategy) {
	a.strategies[lang] = s
}

// Run executes source and returns its result. Run never panics; engine
// failures and panics surface as an error Result.
func (a *Adapter) Run(ctx context.Context, lang models.Language, source string, scope Scope) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("runner panic",
				zap.String("language", string(lang)),
				zap.Any("panic", r))
			res = errorResult(fmt.Sprint(r))
		}
	}()

	switch s := a.strategies[lang].(type) {
	case Executable:
		return a.execute(ctx, s.Engine, source)
	case Placeholder:
		return Result{Output: placeholder(lang, scope)}
	default:
		return errorResult(fmt.Sprintf("unsupported language %q", lang))
	}
}

func (a *Adapter) execute(ctx context.Context, engine Engine, source string) Result {
	var (
		mu    sync.Mutex
		lines []string
	)
	sink := func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	}

	err := engine.Execute(ctx, source, sink)
	if err != nil {
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			a.log.Warn("engine failure", zap.Error(err))
		}
		return errorResult(err.Error())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) == 0 {
		return Result{Output: noOutput}
	}
	return Result{Output: strings.Join(lines, "\n")}
}

func placeholder(lang models.Language, scope Scope) string {
	tail := personalTail
	if scope == ScopeGroup {
		tail = groupTail
	}
	return lang.DisplayName() + placeholderBody + tail
}
