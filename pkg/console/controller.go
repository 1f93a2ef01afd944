package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

type State int

const (
	DirectoryMenu State = iota
	ShardMenu
	Terminated
)

func (s State) String() string {
	switch s {
	case DirectoryMenu:
		return "directory menu"
	case ShardMenu:
		return "shard menu"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type ActionKind int

const (
	ActionList ActionKind = iota
	ActionCreateMap
	ActionDeleteMap
	ActionSelectMap
	ActionQuit
	ActionCreateShard
	ActionDeleteShard
	ActionBack
)

// Menu entries in the order they are numbered on screen, starting at 1.
var (
	directoryMenu = []ActionKind{ActionList, ActionCreateMap, ActionDeleteMap, ActionSelectMap, ActionQuit}
	shardMenu     = []ActionKind{ActionList, ActionCreateShard, ActionDeleteShard, ActionBack}
)

// Action is one operator request. Name is the shard map name for directory actions and
// the database name for shard actions.
type Action struct {
	Kind         ActionKind
	Name         string
	Server       string
	Confirmation string
}

// Outcome is what Apply did.
type Outcome struct {
	Kind ActionKind
	// Aborted is set when a mutating action was not confirmed; nothing was changed.
	Aborted bool
	// Changed reports whether a create or delete actually modified the directory.
	Changed bool

	Target    string
	ShardMap  *shardmaps.ShardMap
	ShardMaps []*shardmaps.ShardMap
	Shards    []*shards.Shard
}

// Config is the session context shown to the operator and used for defaults.
type Config struct {
	HomeServer        string
	DirectoryDatabase string
}

// Controller is the menu state machine. It performs no I/O of its own; a Session feeds
// it operator input and renders the outcomes.
type Controller struct {
	cfg   Config
	state State

	mgr         shardmaps.ShardMapMgr
	newShardMgr func(*shardmaps.ShardMap) shards.ShardMgr
	current     shards.ShardMgr
}

func NewController(cfg Config, mgr shardmaps.ShardMapMgr, newShardMgr func(*shardmaps.ShardMap) shards.ShardMgr) *Controller {
	return &Controller{
		cfg:         cfg,
		state:       DirectoryMenu,
		mgr:         mgr,
		newShardMgr: newShardMgr,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Config() Config {
	return c.cfg
}

// CurrentShardMap returns the selected shard map, or nil outside the shard menu.
func (c *Controller) CurrentShardMap() *shardmaps.ShardMap {
	if c.current == nil {
		return nil
	}
	return c.current.ShardMap()
}

func (c *Controller) menu() []ActionKind {
	switch c.state {
	case DirectoryMenu:
		return directoryMenu
	case ShardMenu:
		return shardMenu
	default:
		return nil
	}
}

// Choose maps a numeric menu selection to an action of the current menu.
func (c *Controller) Choose(input string) (ActionKind, error) {
	menu := c.menu()
	if len(menu) == 0 {
		return 0, spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "session is terminated")
	}

	input = strings.TrimSpace(input)
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "\"%s\" is not a menu number", input)
	}
	if n < 1 || n > len(menu) {
		return 0, spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "choose a number between 1 and %d", len(menu))
	}
	return menu[n-1], nil
}

func (c *Controller) allowed(kind ActionKind) bool {
	for _, k := range c.menu() {
		if k == kind {
			return true
		}
	}
	return false
}

// NeedsConfirmation reports whether kind mutates the directory.
func NeedsConfirmation(kind ActionKind) bool {
	switch kind {
	case ActionCreateMap, ActionDeleteMap, ActionCreateShard, ActionDeleteShard:
		return true
	default:
		return false
	}
}

// IsAffirmative reports whether token confirms an action.
func IsAffirmative(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Prepare resolves defaults: a shard created with an empty server goes to the home
// server. Blanks are trimmed from names being created only; deletes and selects match
// the stored name exactly.
func (c *Controller) Prepare(a Action) Action {
	switch a.Kind {
	case ActionCreateMap:
		a.Name = strings.TrimSpace(a.Name)
	case ActionCreateShard:
		a.Name = strings.TrimSpace(a.Name)
		a.Server = strings.TrimSpace(a.Server)
		if a.Server == "" {
			a.Server = c.cfg.HomeServer
		}
	}
	return a
}

// Describe returns the text echoed back to the operator before confirmation.
func (c *Controller) Describe(a Action) string {
	mapName := ""
	if sm := c.CurrentShardMap(); sm != nil {
		mapName = sm.Name
	}

	switch a.Kind {
	case ActionCreateMap:
		return fmt.Sprintf("Create shard map \"%s\"", a.Name)
	case ActionDeleteMap:
		return fmt.Sprintf("Delete shard map \"%s\"", a.Name)
	case ActionCreateShard:
		return fmt.Sprintf("Create shard [%s].[%s] in shard map \"%s\"", a.Server, a.Name, mapName)
	case ActionDeleteShard:
		return fmt.Sprintf("Delete shard with database \"%s\" from shard map \"%s\"", a.Name, mapName)
	case ActionSelectMap:
		return fmt.Sprintf("Select shard map \"%s\"", a.Name)
	default:
		return ""
	}
}

// Apply performs a. Mutating actions run only when a.Confirmation is affirmative;
// otherwise Apply returns an aborted Outcome without touching the registries. Errors
// never change the state.
func (c *Controller) Apply(ctx context.Context, a Action) (*Outcome, error) {
	if !c.allowed(a.Kind) {
		return nil, spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "action is not available in the %s", c.state)
	}

	a = c.Prepare(a)
	out := &Outcome{Kind: a.Kind, Target: a.Name}

	if NeedsConfirmation(a.Kind) && !IsAffirmative(a.Confirmation) {
		spqrlog.Zero.Debug().
			Str("action", c.Describe(a)).
			Msg("console: action not confirmed")
		out.Aborted = true
		return out, nil
	}

	switch a.Kind {
	case ActionList:
		if c.state == ShardMenu {
			list, err := c.current.ListShards(ctx)
			if err != nil {
				return nil, err
			}
			out.ShardMap = c.current.ShardMap()
			out.Shards = list
			return out, nil
		}
		list, err := c.mgr.ListShardMaps(ctx)
		if err != nil {
			return nil, err
		}
		out.ShardMaps = list
		return out, nil

	case ActionCreateMap:
		sm, created, err := c.mgr.CreateShardMapIfAbsent(ctx, a.Name)
		if err != nil {
			return nil, err
		}
		out.ShardMap = sm
		out.Changed = created
		return out, nil

	case ActionDeleteMap:
		deleted, err := c.mgr.DeleteShardMapIfPresent(ctx, a.Name)
		if err != nil {
			return nil, err
		}
		out.Changed = deleted
		return out, nil

	case ActionSelectMap:
		sm, err := c.mgr.Resolve(ctx, a.Name)
		if err != nil {
			return nil, err
		}
		c.current = c.newShardMgr(sm)
		c.state = ShardMenu
		out.ShardMap = sm
		spqrlog.Zero.Debug().Str("shard-map", sm.Name).Msg("console: entered shard menu")
		return out, nil

	case ActionQuit:
		c.state = Terminated
		return out, nil

	case ActionCreateShard:
		created, err := c.current.CreateShardIfAbsent(ctx, a.Name, a.Server)
		if err != nil {
			return nil, err
		}
		out.ShardMap = c.current.ShardMap()
		out.Target = shards.Location{Server: a.Server, Database: a.Name}.String()
		out.Changed = created
		return out, nil

	case ActionDeleteShard:
		deleted, err := c.current.DeleteShardIfPresent(ctx, a.Name)
		if err != nil {
			return nil, err
		}
		out.ShardMap = c.current.ShardMap()
		out.Changed = deleted
		return out, nil

	case ActionBack:
		out.ShardMap = c.current.ShardMap()
		c.current = nil
		c.state = DirectoryMenu
		return out, nil
	}

	return nil, spqrerror.Newf(spqrerror.SPQR_UNEXPECTED, "unknown action %d", a.Kind)
}
