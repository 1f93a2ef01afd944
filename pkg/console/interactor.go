package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
)

var (
	directoryMenuItems = []string{
		"List shard maps",
		"Create shard map",
		"Delete shard map",
		"Manage shards of a shard map",
		"Quit",
	}
	shardMenuItems = []string{
		"List shards",
		"Create shard",
		"Delete shard",
		"Back to shard maps",
	}
)

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// Interactor renders controller output for a human operator.
type Interactor struct {
	w      io.Writer
	st     styles
	border lipgloss.Border
}

func NewInteractor(w io.Writer) *Interactor {
	r := lipgloss.NewRenderer(w)
	return &Interactor{
		w: w,
		st: styles{
			title:   r.NewStyle().Bold(true),
			muted:   r.NewStyle().Faint(true),
			success: r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
			warning: r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
			err:     r.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true),
		},
		border: lipgloss.NormalBorder(),
	}
}

func (pi *Interactor) println(s string) error {
	_, err := fmt.Fprintln(pi.w, s)
	return err
}

// Menu prints the numbered choices of state.
func (pi *Interactor) Menu(state State, sm *shardmaps.ShardMap) error {
	var title string
	var items []string
	switch state {
	case DirectoryMenu:
		title, items = "Shard maps", directoryMenuItems
	case ShardMenu:
		title, items = fmt.Sprintf("Shard map \"%s\"", sm.Name), shardMenuItems
	default:
		return nil
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(pi.st.title.Render(title))
	sb.WriteString("\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, item)
	}
	_, err := io.WriteString(pi.w, sb.String())
	return err
}

func (pi *Interactor) Prompt(text string) error {
	_, err := fmt.Fprintf(pi.w, "%s: ", text)
	return err
}

// Confirm echoes the pending action and asks for Y/N.
func (pi *Interactor) Confirm(description string) error {
	_, err := fmt.Fprintf(pi.w, "%s? %s ", pi.st.warning.Render(description), pi.st.muted.Render("(Y/N)"))
	return err
}

func (pi *Interactor) renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(pi.border).
		Headers(headers...).
		Rows(rows...).
		String()
}

// ShardMaps prints the directory listing.
func (pi *Interactor) ShardMaps(cfg Config, maps []*shardmaps.ShardMap) error {
	if err := pi.println(pi.st.title.Render(
		fmt.Sprintf("Shard maps in %s", shards.Location{Server: cfg.HomeServer, Database: cfg.DirectoryDatabase}))); err != nil {
		return err
	}
	if len(maps) == 0 {
		return pi.println(pi.st.muted.Render("No shard maps found."))
	}

	rows := make([][]string, 0, len(maps))
	for _, sm := range maps {
		rows = append(rows, []string{sm.Name, string(sm.KeyType)})
	}
	return pi.println(pi.renderTable([]string{"Shard map", "Key type"}, rows))
}

// Shards prints the shards of sm.
func (pi *Interactor) Shards(sm *shardmaps.ShardMap, list []*shards.Shard) error {
	if err := pi.println(pi.st.title.Render(fmt.Sprintf("Shards of shard map \"%s\"", sm.Name))); err != nil {
		return err
	}
	if len(list) == 0 {
		return pi.println(pi.st.muted.Render("No shards found."))
	}

	rows := make([][]string, 0, len(list))
	for _, sh := range list {
		rows = append(rows, []string{sh.Location.Database, sh.Location.Server})
	}
	return pi.println(pi.renderTable([]string{"Database", "Server"}, rows))
}

// ReportOutcome prints the result of a non-listing action.
func (pi *Interactor) ReportOutcome(out *Outcome) error {
	if out.Aborted {
		return pi.println(pi.st.muted.Render("Cancelled."))
	}

	var msg string
	switch out.Kind {
	case ActionCreateMap:
		if out.Changed {
			msg = fmt.Sprintf("Shard map \"%s\" created.", out.Target)
		} else {
			msg = fmt.Sprintf("Shard map \"%s\" already exists.", out.Target)
		}
	case ActionDeleteMap:
		if out.Changed {
			msg = fmt.Sprintf("Shard map \"%s\" deleted.", out.Target)
		} else {
			msg = fmt.Sprintf("Shard map \"%s\" does not exist.", out.Target)
		}
	case ActionCreateShard:
		if out.Changed {
			msg = fmt.Sprintf("Shard %s created in shard map \"%s\".", out.Target, out.ShardMap.Name)
		} else {
			msg = fmt.Sprintf("Shard map \"%s\" already has a shard for this database.", out.ShardMap.Name)
		}
	case ActionDeleteShard:
		if out.Changed {
			msg = fmt.Sprintf("Shard with database \"%s\" deleted from shard map \"%s\".", out.Target, out.ShardMap.Name)
		} else {
			msg = fmt.Sprintf("Shard map \"%s\" has no shard with database \"%s\".", out.ShardMap.Name, out.Target)
		}
	default:
		return nil
	}

	if out.Changed {
		return pi.println(pi.st.success.Render(msg))
	}
	return pi.println(pi.st.warning.Render(msg))
}

// ReportError is the only place where errors become operator text.
func (pi *Interactor) ReportError(err error) error {
	if err == nil {
		return nil
	}

	var se *spqrerror.SpqrError
	var text string
	switch {
	case !errors.As(err, &se):
		text = fmt.Sprintf("Error: %s", err)
	case se.ErrorCode == spqrerror.SPQR_OBJECT_NOT_EXIST:
		text = fmt.Sprintf("%s.", capitalize(se.Error()))
	case se.ErrorCode == spqrerror.SPQR_INVALID_REQUEST:
		text = fmt.Sprintf("Invalid input: %s.", se.Error())
	default:
		text = fmt.Sprintf("%s: %s", se.Kind(), se.Error())
	}
	return pi.println(pi.st.err.Render(text))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
