package dag

import (
	"context"

	"github.com/kairos-io/hymoctl/pkg/hymo"
	"github.com/kairos-io/hymoctl/pkg/state"
	"github.com/spectrocloud-labs/herd"
)

// RegisterRefresh registers the dag that refreshes everything the overlay screen shows.
// All reads are independent and side-effect free so they share a layer, only the rule
// listing waits for the status probe.
func RegisterRefresh(s *state.State, g *herd.Graph) error {
	err := s.LogIfErrorAndReturn(s.StatusDagStep(g), "status")

	s.LogIfError(s.VersionDagStep(g), "version")
	s.LogIfError(s.LoadConfigDagStep(g), "load config")
	s.LogIfError(s.ListModulesDagStep(g), "modules")
	s.LogIfError(s.SystemInfoDagStep(g), "system info")
	s.LogIfError(s.StorageInfoDagStep(g), "storage info")
	s.LogIfError(s.BuiltinMountDagStep(g), "builtin mount")
	s.LogIfError(s.ActiveRulesDagStep(g), "active rules")
	return err
}

// Refresh builds and runs the refresh dag against client.
func Refresh(ctx context.Context, client *hymo.Client) (*state.State, error) {
	s := state.New(client)
	g := herd.DAG(herd.EnableInit)
	if err := RegisterRefresh(s, g); err != nil {
		return s, err
	}
	if err := g.Run(ctx); err != nil {
		return s, err
	}
	return s, s.Err()
}
