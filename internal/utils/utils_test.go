package utils_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kairos-io/hymoctl/internal/constants"
	"github.com/kairos-io/hymoctl/internal/utils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("slice utils", func() {
	Context("UniqueSlice", func() {
		It("keeps the first occurrence in place", func() {
			Expect(utils.UniqueSlice([]string{"system", "vendor", "system", "data", "vendor"})).
				To(Equal([]string{"system", "vendor", "data"}))
		})
		It("returns an empty slice for nil", func() {
			Expect(utils.UniqueSlice(nil)).To(BeEmpty())
		})
	})

	Context("CleanupSlice", func() {
		It("trims and drops empty items", func() {
			Expect(utils.CleanupSlice([]string{" a ", "", "  ", "b"})).To(Equal([]string{"a", "b"}))
		})
	})

	Context("ShellQuote", func() {
		It("wraps plain strings in single quotes", func() {
			Expect(utils.ShellQuote("/data/adb/hymo")).To(Equal("'/data/adb/hymo'"))
		})
		It("escapes embedded single quotes", func() {
			Expect(utils.ShellQuote("it's")).To(Equal(`'it'\''s'`))
		})
	})

	Context("FirstLine", func() {
		It("skips blank lines", func() {
			Expect(utils.FirstLine([]string{"", "  ", " 5.10.0 ", "x"})).To(Equal("5.10.0"))
		})
		It("is empty without content", func() {
			Expect(utils.FirstLine([]string{})).To(Equal(""))
		})
	})
})

var _ = Describe("settings", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		for _, k := range []string{"HYMOCTL_KSUD", "HYMOCTL_TIMEOUT", "HYMOCTL_ATTEMPTS", "HYMOCTL_SU"} {
			GinkgoT().Setenv(k, "")
		}
	})

	Context("ReadEnv", func() {
		It("parses an env file", func() {
			f := filepath.Join(dir, "hymoctl.env")
			Expect(os.WriteFile(f, []byte("HYMOCTL_KSUD=/bin/ksud\n# comment\nHYMOCTL_SU=\"su -c\"\n"), 0o644)).To(Succeed())
			env, err := utils.ReadEnv(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(env).To(HaveKeyWithValue("HYMOCTL_KSUD", "/bin/ksud"))
			Expect(env).To(HaveKeyWithValue("HYMOCTL_SU", "su -c"))
		})
		It("fails on a missing file", func() {
			_, err := utils.ReadEnv(filepath.Join(dir, "missing.env"))
			Expect(err).To(HaveOccurred())
		})
	})

	Context("LoadSettings", func() {
		It("falls back to the device layout when the file is missing", func() {
			s, err := utils.LoadSettings(filepath.Join(dir, "missing.env"))
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(utils.DefaultSettings()))
			Expect(s.ModuleModeFile).To(Equal(constants.ModuleModeFile))
		})
		It("applies the file and lets the environment win", func() {
			f := filepath.Join(dir, "hymoctl.env")
			Expect(os.WriteFile(f, []byte("HYMOCTL_KSUD=/file/ksud\nHYMOCTL_TIMEOUT=5s\nHYMOCTL_MODULE_DIR=/mods\n"), 0o644)).To(Succeed())
			GinkgoT().Setenv("HYMOCTL_KSUD", "/env/ksud")

			s, err := utils.LoadSettings(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Ksud).To(Equal("/env/ksud"))
			Expect(s.Timeout).To(Equal(5 * time.Second))
			Expect(s.ModuleDir).To(Equal("/mods"))
		})
		It("keeps the file value when the variable is exported empty", func() {
			f := filepath.Join(dir, "hymoctl.env")
			Expect(os.WriteFile(f, []byte("HYMOCTL_SU=su -c\nHYMOCTL_TIMEOUT=5s\n"), 0o644)).To(Succeed())
			GinkgoT().Setenv("HYMOCTL_SU", "")
			GinkgoT().Setenv("HYMOCTL_TIMEOUT", "")

			s, err := utils.LoadSettings(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Su).To(Equal("su -c"))
			Expect(s.Timeout).To(Equal(5 * time.Second))
		})
		It("ignores invalid numbers", func() {
			GinkgoT().Setenv("HYMOCTL_TIMEOUT", "soon")
			GinkgoT().Setenv("HYMOCTL_ATTEMPTS", "0")
			s, err := utils.LoadSettings("")
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Timeout).To(Equal(30 * time.Second))
			Expect(s.Attempts).To(Equal(uint(1)))
		})
	})
})
