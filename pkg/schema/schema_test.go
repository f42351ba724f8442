package schema_test

import (
	"encoding/json"

	"github.com/kairos-io/hymoctl/pkg/schema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

var _ = Describe("schema", func() {
	Context("OverlayStatus", func() {
		It("maps daemon codes", func() {
			Expect(schema.StatusFromCode(0)).To(Equal(schema.StatusAvailable))
			Expect(schema.StatusFromCode(1)).To(Equal(schema.StatusNotPresent))
			Expect(schema.StatusFromCode(2)).To(Equal(schema.StatusKernelTooOld))
			Expect(schema.StatusFromCode(3)).To(Equal(schema.StatusModuleTooOld))
		})
		It("treats unknown codes as not present", func() {
			Expect(schema.StatusFromCode(-1)).To(Equal(schema.StatusNotPresent))
			Expect(schema.StatusFromCode(42)).To(Equal(schema.StatusNotPresent))
		})
		It("renders by name", func() {
			out, err := json.Marshal(map[string]schema.OverlayStatus{"s": schema.StatusKernelTooOld})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal(`{"s":"KernelTooOld"}`))

			y, err := yaml.Marshal(map[string]schema.OverlayStatus{"s": schema.StatusAvailable})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(y)).To(Equal("s: Available\n"))
		})
	})

	Context("modes", func() {
		It("accepts every requestable mode", func() {
			for _, m := range []string{"auto", "hymofs", "overlay", "magic", "none"} {
				Expect(schema.ValidMode(m)).To(BeTrue(), m)
			}
			Expect(schema.ValidMode("Auto")).To(BeFalse())
			Expect(schema.ValidMode("")).To(BeFalse())
		})
		It("only accepts applied strategies", func() {
			Expect(schema.ValidStrategy("magic")).To(BeTrue())
			Expect(schema.ValidStrategy("auto")).To(BeFalse())
			Expect(schema.ValidStrategy("none")).To(BeFalse())
		})
	})

	Context("OverlayConfig", func() {
		It("has the documented defaults", func() {
			cfg := schema.DefaultConfig()
			Expect(cfg.ModuleDir).To(Equal("/data/adb/modules"))
			Expect(cfg.MountSource).To(Equal("KSU"))
			Expect(cfg.EnableStealth).To(BeTrue())
			Expect(cfg.Verbose).To(BeFalse())
			Expect(cfg.Partitions).To(BeEmpty())
			Expect(cfg.Available).To(BeFalse())
			Expect(cfg.Status).To(Equal(schema.StatusNotPresent))
		})
		It("compares partitions by order", func() {
			a := schema.DefaultConfig()
			b := schema.DefaultConfig()
			a.Partitions = []string{"my_custom", "mi_ext"}
			b.Partitions = []string{"my_custom", "mi_ext"}
			Expect(a.Equal(b)).To(BeTrue())
			b.Partitions = []string{"mi_ext", "my_custom"}
			Expect(a.Equal(b)).To(BeFalse())
		})
		It("normalizes partitions", func() {
			Expect(schema.NormalizePartitions([]string{" a", "", "b", "a "})).To(Equal([]string{"a", "b"}))
			Expect(schema.NormalizePartitions(nil)).To(Equal([]string{}))
		})
	})
})
