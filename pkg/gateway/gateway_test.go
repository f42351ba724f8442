package gateway_test

import (
	"context"
	"errors"
	"time"

	"github.com/kairos-io/hymoctl/internal/constants"
	"github.com/kairos-io/hymoctl/pkg/gateway"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ShellGateway", func() {
	var g *gateway.ShellGateway

	BeforeEach(func() {
		g = &gateway.ShellGateway{Timeout: 5 * time.Second}
	})

	It("splits stdout and stderr in lines", func() {
		res := g.Exec(context.Background(), "echo one; echo two; echo oops >&2")
		Expect(res.Success).To(BeTrue())
		Expect(res.ExitCode).To(Equal(0))
		Expect(res.Stdout).To(Equal([]string{"one", "two"}))
		Expect(res.Stderr).To(Equal([]string{"oops"}))
		Expect(res.Output()).To(Equal("one\ntwo"))
		Expect(res.Error()).ToNot(HaveOccurred())
	})

	It("runs a sequence as one script", func() {
		res := g.Exec(context.Background(), "x=hello", "echo $x")
		Expect(res.Success).To(BeTrue())
		Expect(res.Stdout).To(Equal([]string{"hello"}))
	})

	It("reports the exit code of a failed command", func() {
		res := g.Exec(context.Background(), "echo partial; exit 3")
		Expect(res.Success).To(BeFalse())
		Expect(res.ExitCode).To(Equal(3))
		Expect(res.Err).ToNot(HaveOccurred())
		Expect(errors.Is(res.Error(), constants.ErrCommandFailed)).To(BeTrue())
	})

	It("returns empty output as an empty list", func() {
		res := g.Exec(context.Background(), "true")
		Expect(res.Success).To(BeTrue())
		Expect(res.Stdout).To(BeEmpty())
	})

	It("refuses an empty call", func() {
		res := g.Exec(context.Background())
		Expect(res.Success).To(BeFalse())
		Expect(res.Err).To(HaveOccurred())
	})

	It("times out", func() {
		g.Timeout = 100 * time.Millisecond
		res := g.Exec(context.Background(), "sleep 5")
		Expect(res.Success).To(BeFalse())
		Expect(res.Err).To(MatchError(context.DeadlineExceeded))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := g.Exec(ctx, "echo never")
		Expect(res.Success).To(BeFalse())
	})

	It("passes the script to a privilege wrapper", func() {
		g.Su = "/bin/sh -c"
		res := g.Exec(context.Background(), "echo wrapped")
		Expect(res.Success).To(BeTrue())
		Expect(res.Stdout).To(Equal([]string{"wrapped"}))
	})
})

var _ = Describe("Fake", func() {
	It("fails unmatched calls", func() {
		f := gateway.NewFake()
		res := f.Exec(context.Background(), "anything")
		Expect(res.Success).To(BeFalse())
		Expect(res.ExitCode).To(Equal(127))
	})

	It("answers with the latest matching handler", func() {
		f := gateway.NewFake().
			On("hymo", gateway.OK("first")).
			On("hymo status", gateway.OK("second"))
		Expect(f.Exec(context.Background(), "ksud hymo status").Stdout).To(Equal([]string{"second"}))
		Expect(f.Exec(context.Background(), "ksud hymo list").Stdout).To(Equal([]string{"first"}))
		Expect(f.CallCount("hymo")).To(Equal(2))
	})

	It("hands the joined script to handlers", func() {
		var seen string
		f := gateway.NewFake().Handle("cat", func(script string) gateway.Result {
			seen = script
			return gateway.OKText("a\nb\n")
		})
		res := f.Exec(context.Background(), "set -e", "cat x")
		Expect(seen).To(Equal("set -e\ncat x"))
		Expect(res.Stdout).To(Equal([]string{"a", "b"}))
	})

	It("builds transport failures", func() {
		res := gateway.Broken(errors.New("pipe closed"))
		Expect(res.Success).To(BeFalse())
		Expect(res.Error()).To(MatchError(ContainSubstring("pipe closed")))
	})
})
