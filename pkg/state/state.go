package state

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	cnst "github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/hymo"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/spectrocloud-labs/herd"
)

// State is one refresh of everything the overlay screen shows. Every field is an
// independent snapshot, filled by its own DAG step.
type State struct {
	Client *hymo.Client `json:"-" yaml:"-"`

	Version      string               `json:"version" yaml:"version"`
	Status       schema.OverlayStatus `json:"status" yaml:"status"`
	Config       schema.OverlayConfig `json:"config" yaml:"config"`
	Modules      []schema.ModuleInfo  `json:"modules" yaml:"modules"`
	Rules        []schema.ActiveRule  `json:"rules" yaml:"rules"`
	System       schema.SystemInfo    `json:"system" yaml:"system"`
	Storage      schema.StorageInfo   `json:"storage" yaml:"storage"`
	BuiltinMount bool                 `json:"builtin_mount" yaml:"builtin_mount"`
	ModuleModes  map[string]string    `json:"module_modes" yaml:"module_modes"`

	mu     sync.Mutex
	errors *multierror.Error
}

// New returns a State with every snapshot on its default, ready to be refreshed by client.
func New(client *hymo.Client) *State {
	return &State{
		Client:       client,
		Version:      cnst.Unknown,
		Status:       schema.StatusNotPresent,
		Config:       schema.DefaultConfig(),
		Modules:      []schema.ModuleInfo{},
		Rules:        []schema.ActiveRule{},
		System:       schema.DefaultSystemInfo(),
		Storage:      schema.DefaultStorageInfo(),
		BuiltinMount: true,
		ModuleModes:  map[string]string{},
	}
}

// addError records a step failure, steps run concurrently.
func (s *State) addError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = multierror.Append(s.errors, err)
}

// Err returns every step failure of the last run, or nil.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.ErrorOrNil()
}

// WriteDAG writes the dag.
func (s *State) WriteDAG(g *herd.Graph) (out string) {
	for i, layer := range g.Analyze() {
		out += fmt.Sprintf("%d.\n", i+1)
		for _, op := range layer {
			if op.Error != nil {
				out += fmt.Sprintf(" <%s> (error: %s) (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Error.Error(), op.Background, op.WeakDeps, op.Executed)
			} else {
				out += fmt.Sprintf(" <%s> (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Background, op.WeakDeps, op.Executed)
			}
		}
	}
	return
}

// LogIfError will log if there is an error with the given context as message
// Context can be empty.
func (s *State) LogIfError(e error, msgContext string) {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
}

// LogIfErrorAndReturn will log if there is an error with the given context as message
// Context can be empty
// Will also return the error.
func (s *State) LogIfErrorAndReturn(e error, msgContext string) error {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
	return e
}
