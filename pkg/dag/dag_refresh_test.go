package dag_test

import (
	"context"
	"errors"

	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/dag"
	"github.com/kairos-io/hymoctl/pkg/gateway"
	"github.com/kairos-io/hymoctl/pkg/hymo"
	"github.com/kairos-io/hymoctl/pkg/schema"
	"github.com/kairos-io/hymoctl/pkg/state"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spectrocloud-labs/herd"
)

func fakeDaemon(status string) *gateway.Fake {
	return gateway.NewFake().
		On("hymo version", gateway.OK("HymoFS protocol 5")).
		On("hymo status", gateway.OK(status)).
		On("hymo show-config", gateway.OKText(`{"moduledir": "/mods", "partitions": ["mi_ext"], "hymofs_status": 0}`)).
		On("hymo modules", gateway.OKText(`{"modules": [{"id": "a", "strategy": "magic"}]}`)).
		On("hymo list", gateway.OK("hide /x")).
		On("hymo storage", gateway.OKText(`{"type": "ext4"}`)).
		On("uname -r", gateway.OK("6.1.0")).
		On("getenforce", gateway.OK("Enforcing")).
		On("module_mode.conf", gateway.OK("a=magic")).
		On(".disable_builtin_mount", gateway.OK("disabled"))
}

var _ = Describe("refresh dag", func() {
	var g *herd.Graph

	BeforeEach(func() {
		g = herd.DAG(herd.EnableInit)
		Expect(g).ToNot(BeNil())
	})

	It("generates the refresh dag", func() {
		s := state.New(hymo.New(gateway.NewFake(), internalUtils.DefaultSettings()))
		Expect(dag.RegisterRefresh(s, g)).To(Succeed())

		layers := g.Analyze()
		out := s.WriteDAG(g)
		Expect(layers).To(HaveLen(3), out)
		Expect(layers[0]).To(HaveLen(1), out)
		Expect(layers[0][0].Name).To(Equal("init"), out)
		Expect(layers[1]).To(HaveLen(7), out)
		Expect(layers[2]).To(HaveLen(1), out)
		Expect(layers[2][0].Name).To(Equal("active-rules"), out)

		var names []string
		for _, op := range layers[1] {
			names = append(names, op.Name)
		}
		Expect(names).To(ConsistOf("hymo-version", "hymo-status", "load-config", "list-modules",
			"system-info", "storage-info", "builtin-mount"), out)
	})

	It("fills every snapshot", func() {
		client := hymo.New(fakeDaemon("Status: Available"), internalUtils.DefaultSettings())
		s, err := dag.Refresh(context.Background(), client)
		Expect(err).ToNot(HaveOccurred())

		Expect(s.Version).To(Equal("HymoFS protocol 5"))
		Expect(s.Status).To(Equal(schema.StatusAvailable))
		Expect(s.Config.ModuleDir).To(Equal("/mods"))
		Expect(s.Config.Partitions).To(Equal([]string{"mi_ext"}))
		Expect(s.Modules).To(HaveLen(1))
		Expect(s.Modules[0].Strategy).To(Equal("magic"))
		Expect(s.ModuleModes).To(Equal(map[string]string{"a": "magic"}))
		Expect(s.Rules).To(Equal([]schema.ActiveRule{{Kind: schema.RuleHide, Src: "/x"}}))
		Expect(s.System.Kernel).To(Equal("6.1.0"))
		Expect(s.Storage.Type).To(Equal("ext4"))
		Expect(s.BuiltinMount).To(BeFalse())
	})

	It("skips rules unless the capability is available", func() {
		f := fakeDaemon("Kernel Too Old")
		s, err := dag.Refresh(context.Background(), hymo.New(f, internalUtils.DefaultSettings()))
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Status).To(Equal(schema.StatusKernelTooOld))
		Expect(s.Rules).To(BeEmpty())
		Expect(f.CallCount("hymo list")).To(Equal(0))
	})

	It("keeps defaults when the daemon is gone", func() {
		f := gateway.NewFake()
		f.Default = gateway.Broken(errors.New("no shell"))
		s, err := dag.Refresh(context.Background(), hymo.New(f, internalUtils.DefaultSettings()))
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Version).To(Equal("Unknown"))
		Expect(s.Status).To(Equal(schema.StatusNotPresent))
		Expect(s.Config).To(Equal(schema.DefaultConfig()))
		Expect(s.Modules).To(BeEmpty())
		Expect(s.BuiltinMount).To(BeTrue())
	})

	It("reports a cancelled refresh", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s, err := dag.Refresh(ctx, hymo.New(gateway.NewFake(), internalUtils.DefaultSettings()))
		Expect(err).To(HaveOccurred())
		Expect(s.Status).To(Equal(schema.StatusNotPresent))
	})
})
