package hymo_test

import (
	"context"

	"github.com/kairos-io/hymoctl/pkg/gateway"
	"github.com/kairos-io/hymoctl/pkg/hymo"
	"github.com/kairos-io/hymoctl/pkg/schema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("info", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("SystemInfo", func() {
		It("collects all three sources", func() {
			f := gateway.NewFake().
				On("uname -r", gateway.OK("5.10.198-android12")).
				On("getenforce", gateway.OK("Enforcing")).
				On("daemon_state.json", gateway.OKText(`{"mount_point": "/dev/hymo", "active_mounts": ["system", "vendor"],
					"hymofs_module_ids": ["a"], "hymofs_mismatch": true, "mismatch_message": "a wanted hymofs"}`))
			info := hymo.New(f, testSettings("/tmp/unused")).SystemInfo(ctx)
			Expect(info).To(Equal(schema.SystemInfo{
				Kernel:          "5.10.198-android12",
				SELinux:         "Enforcing",
				MountBase:       "/dev/hymo",
				ActiveMounts:    []string{"system", "vendor"},
				HymoFSModuleIDs: []string{"a"},
				HymoFSMismatch:  true,
				MismatchMessage: "a wanted hymofs",
			}))
		})

		It("defaults each field on its own", func() {
			f := gateway.NewFake().
				On("uname -r", gateway.OK()).
				On("getenforce", gateway.OK("Permissive")).
				On("daemon_state.json", gateway.OKText("{broken"))
			info := hymo.New(f, testSettings("/tmp/unused")).SystemInfo(ctx)
			expected := schema.DefaultSystemInfo()
			expected.SELinux = "Permissive"
			Expect(info).To(Equal(expected))
		})

		It("is all defaults when nothing answers", func() {
			info := hymo.New(gateway.NewFake(), testSettings("/tmp/unused")).SystemInfo(ctx)
			Expect(info).To(Equal(schema.DefaultSystemInfo()))
		})
	})

	Context("StorageInfo", func() {
		It("passes the daemon's values through", func() {
			f := gateway.NewFake().On("hymo storage", gateway.OKText(`{"size": "2.0G", "used": "1.1G", "avail": "900M", "percent": "55%", "type": "ext4"}`))
			info := hymo.New(f, testSettings("/tmp/unused")).StorageInfo(ctx)
			Expect(info).To(Equal(schema.StorageInfo{Size: "2.0G", Used: "1.1G", Avail: "900M", Percent: "55%", Type: "ext4"}))
		})

		It("keeps defaults for missing fields", func() {
			f := gateway.NewFake().On("hymo storage", gateway.OKText(`{"type": "tmpfs"}`))
			info := hymo.New(f, testSettings("/tmp/unused")).StorageInfo(ctx)
			Expect(info).To(Equal(schema.StorageInfo{Size: "-", Used: "-", Avail: "-", Percent: "0%", Type: "tmpfs"}))
		})

		It("is the default on failure", func() {
			info := hymo.New(gateway.NewFake(), testSettings("/tmp/unused")).StorageInfo(ctx)
			Expect(info).To(Equal(schema.DefaultStorageInfo()))
		})
	})
})
