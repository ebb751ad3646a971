package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jdziat/entrybatch/pkg/core"
)

// Failure policies for --on-failure.
const (
	onFailurePrompt   = "prompt"
	onFailureAbort    = "abort"
	onFailureContinue = "continue"
)

func validOnFailure(policy string) error {
	switch policy {
	case onFailurePrompt, onFailureAbort, onFailureContinue:
		return nil
	}
	return fmt.Errorf("--on-failure must be %s, %s or %s, got %q",
		onFailurePrompt, onFailureAbort, onFailureContinue, policy)
}

// failurePolicy resolves --on-failure against run.pause_on_failure. An
// explicit flag wins; otherwise a configuration that disables pausing means
// continue.
func failurePolicy(flag string, flagSet, pauseOnFailure bool) string {
	if !flagSet && !pauseOnFailure {
		return onFailureContinue
	}
	return flag
}

// answers reads operator input one line at a time. A single goroutine owns
// the reader for the life of the process so that an abandoned prompt does
// not leave a second reader racing for the next line.
type answers struct {
	r     *bufio.Reader
	once  sync.Once
	lines chan answer
}

type answer struct {
	text string
	err  error
}

func newAnswers(r io.Reader) *answers {
	return &answers{r: bufio.NewReader(r), lines: make(chan answer, 1)}
}

// next returns the next line, or ctx.Err() if ctx ends first. After the
// input is exhausted it keeps returning io.EOF.
func (a *answers) next(ctx context.Context) (string, error) {
	a.once.Do(func() { go a.read() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ans, ok := <-a.lines:
		if !ok {
			return "", io.EOF
		}
		return ans.text, ans.err
	}
}

func (a *answers) read() {
	defer close(a.lines)
	for {
		line, err := a.r.ReadString('\n')
		a.lines <- answer{text: line, err: err}
		if err != nil {
			return
		}
	}
}

// shouldResume decides what to do with a paused run. Under the prompt policy
// it asks on out and waits for an answer; end of input aborts. It returns
// ctx.Err() when ctx ends while waiting.
func shouldResume(ctx context.Context, policy string, paused *core.RowResult, in *answers, out io.Writer) (bool, error) {
	switch policy {
	case onFailureContinue:
		return true, nil
	case onFailureAbort:
		return false, nil
	}

	if paused != nil {
		fmt.Fprintf(out, "\nRecord %d (%s) failed: %s\n", paused.Index, paused.Identity, paused.Detail)
	}
	for {
		fmt.Fprint(out, "Fix the entry by hand, then [r]esume with the next record or [a]bort? ")
		line, err := in.next(ctx)
		if ctx.Err() != nil {
			fmt.Fprintln(out)
			return false, ctx.Err()
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "resume", "y", "yes":
			return true, nil
		case "a", "abort", "n", "no":
			return false, nil
		}
		if err != nil {
			fmt.Fprintln(out)
			return false, nil
		}
	}
}
