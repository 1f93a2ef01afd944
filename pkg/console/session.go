package console

import (
	"bufio"
	"context"
	"io"

	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

type inputLine struct {
	text string
	err  error
}

// Session drives a Controller from line based operator input.
type Session struct {
	ctl *Controller
	in  *bufio.Scanner
	pi  *Interactor

	lines chan inputLine
	done  chan struct{}
}

func NewSession(ctl *Controller, r io.Reader, w io.Writer) *Session {
	return &Session{
		ctl: ctl,
		in:  bufio.NewScanner(r),
		pi:  NewInteractor(w),
	}
}

// scan feeds input lines to Run until input ends or Run returns. The channel is closed
// at end of input; a read error is sent before closing.
func (s *Session) scan() {
	defer close(s.lines)
	for s.in.Scan() {
		select {
		case s.lines <- inputLine{text: s.in.Text()}:
		case <-s.done:
			return
		}
	}
	if err := s.in.Err(); err != nil {
		select {
		case s.lines <- inputLine{err: err}:
		case <-s.done:
		}
	}
}

// readLine returns the next input line; ok is false at end of input. A cancelled ctx
// interrupts the wait.
func (s *Session) readLine(ctx context.Context) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case l, ok := <-s.lines:
		if !ok {
			return "", false, nil
		}
		if l.err != nil {
			return "", false, l.err
		}
		return l.text, true, nil
	}
}

func (s *Session) ask(ctx context.Context, prompt string) (string, bool, error) {
	if err := s.pi.Prompt(prompt); err != nil {
		return "", false, err
	}
	return s.readLine(ctx)
}

// collect prompts for the arguments of kind. ok is false at end of input.
func (s *Session) collect(ctx context.Context, kind ActionKind) (Action, bool, error) {
	a := Action{Kind: kind}
	var ok bool
	var err error

	switch kind {
	case ActionCreateMap, ActionDeleteMap, ActionSelectMap:
		if a.Name, ok, err = s.ask(ctx, "Shard map name"); !ok || err != nil {
			return a, ok, err
		}
	case ActionCreateShard:
		if a.Name, ok, err = s.ask(ctx, "Database name"); !ok || err != nil {
			return a, ok, err
		}
		if a.Server, ok, err = s.ask(ctx, "Server name (empty for " + s.ctl.Config().HomeServer + ")"); !ok || err != nil {
			return a, ok, err
		}
	case ActionDeleteShard:
		if a.Name, ok, err = s.ask(ctx, "Database name"); !ok || err != nil {
			return a, ok, err
		}
	}

	if !NeedsConfirmation(kind) {
		return a, true, nil
	}

	a = s.ctl.Prepare(a)
	if err := s.pi.Confirm(s.ctl.Describe(a)); err != nil {
		return a, false, err
	}
	a.Confirmation, ok, err = s.readLine(ctx)
	return a, ok, err
}

func (s *Session) render(out *Outcome) error {
	switch {
	case out.Kind == ActionList && s.ctl.State() == ShardMenu:
		return s.pi.Shards(out.ShardMap, out.Shards)
	case out.Kind == ActionList:
		return s.pi.ShardMaps(s.ctl.Config(), out.ShardMaps)
	default:
		return s.pi.ReportOutcome(out)
	}
}

// Run loops until the operator quits, input ends or ctx is cancelled. Operator
// mistakes and store failures are reported and the menu is shown again. Run must not be
// called more than once.
func (s *Session) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lines = make(chan inputLine)
	s.done = make(chan struct{})
	defer close(s.done)
	go s.scan()

	for s.ctl.State() != Terminated {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pi.Menu(s.ctl.State(), s.ctl.CurrentShardMap()); err != nil {
			return err
		}

		line, ok, err := s.ask(ctx, "Enter an option")
		if err != nil {
			return err
		}
		if !ok {
			spqrlog.Zero.Debug().Msg("console: end of input")
			return nil
		}

		kind, err := s.ctl.Choose(line)
		if err != nil {
			if err := s.pi.ReportError(err); err != nil {
				return err
			}
			continue
		}

		a, ok, err := s.collect(ctx, kind)
		if err != nil {
			return err
		}
		if !ok {
			spqrlog.Zero.Debug().Msg("console: end of input")
			return nil
		}

		// Input may have been read just before cancellation.
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := s.ctl.Apply(ctx, a)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			spqrlog.Zero.Debug().Err(err).Msg("console: action failed")
			if err := s.pi.ReportError(err); err != nil {
				return err
			}
			continue
		}
		if err := s.render(out); err != nil {
			return err
		}
	}
	return nil
}
