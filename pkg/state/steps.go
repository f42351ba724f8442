package state

import (
	"context"
	"fmt"

	cnst "github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/spectrocloud-labs/herd"
)

// step wraps a read so it stops early on a cancelled context. Reads recover their own
// failures, so the only error a step returns is the context's.
func (s *State) step(name string, read func(ctx context.Context)) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			s.addError(err)
			return err
		}
		read(ctx)
		internalUtils.Log.Debug().Str("step", name).Msg("Step done")
		return nil
	}
}

// VersionDagStep reads the daemon version.
func (s *State) VersionDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpVersion, append(opts, herd.WithCallback(s.step(cnst.OpVersion, func(ctx context.Context) {
		s.Version = s.Client.Version(ctx)
	})))...)
}

// StatusDagStep probes the overlay capability.
func (s *State) StatusDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpStatus, append(opts, herd.WithCallback(s.step(cnst.OpStatus, func(ctx context.Context) {
		s.Status = s.Client.Status(ctx)
	})))...)
}

// LoadConfigDagStep loads the daemon config.
func (s *State) LoadConfigDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpLoadConfig, append(opts, herd.WithCallback(s.step(cnst.OpLoadConfig, func(ctx context.Context) {
		s.Config = s.Client.LoadConfig(ctx)
	})))...)
}

// ListModulesDagStep lists modules and the override map next to them.
func (s *State) ListModulesDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpListModules, append(opts, herd.WithCallback(s.step(cnst.OpListModules, func(ctx context.Context) {
		s.Modules = s.Client.ListModules(ctx)
		modes, err := s.Client.ModuleModes(ctx)
		if err != nil {
			internalUtils.Log.Warn().Err(err).Msg("Reading module modes")
			return
		}
		s.ModuleModes = modes
	})))...)
}

// ActiveRulesDagStep lists kernel rules. Rules only exist when the capability is available,
// so this waits for the status step and skips otherwise.
func (s *State) ActiveRulesDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpActiveRules, append(opts, herd.WithDeps(cnst.OpStatus), herd.WithCallback(s.step(cnst.OpActiveRules, func(ctx context.Context) {
		if s.Status != schema.StatusAvailable {
			internalUtils.Log.Debug().Str("status", s.Status.String()).Msg("Skipping active rules")
			return
		}
		s.Rules = s.Client.ListActiveRules(ctx)
	})))...)
}

// SystemInfoDagStep collects system info.
func (s *State) SystemInfoDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpSystemInfo, append(opts, herd.WithCallback(s.step(cnst.OpSystemInfo, func(ctx context.Context) {
		s.System = s.Client.SystemInfo(ctx)
	})))...)
}

// StorageInfoDagStep collects storage info.
func (s *State) StorageInfoDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpStorageInfo, append(opts, herd.WithCallback(s.step(cnst.OpStorageInfo, func(ctx context.Context) {
		s.Storage = s.Client.StorageInfo(ctx)
	})))...)
}

// BuiltinMountDagStep checks the builtin mount flag.
func (s *State) BuiltinMountDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpBuiltinMount, append(opts, herd.WithCallback(s.step(cnst.OpBuiltinMount, func(ctx context.Context) {
		s.BuiltinMount = s.Client.BuiltinMountEnabled(ctx)
	})))...)
}
