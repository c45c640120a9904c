package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("has api and proxy subcommands", func() {
		cmd := servecmder.NewServeCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("api", "proxy"))
	})

	It("has separate listen flags for both servers", func() {
		cmd := servecmder.NewServeCmd()

		proxyListen := cmd.Flags().Lookup("proxy-listen")
		Expect(proxyListen).NotTo(BeNil())
		Expect(proxyListen.Shorthand).To(Equal("p"))
		Expect(proxyListen.DefValue).To(Equal(":8080"))

		apiListen := cmd.Flags().Lookup("api-listen")
		Expect(apiListen).NotTo(BeNil())
		Expect(apiListen.Shorthand).To(Equal("a"))
		Expect(apiListen.DefValue).To(Equal(":8081"))
	})

	It("has shared storage and eventstream flags", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("storage-driver")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("sqlite")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("event-provider")).NotTo(BeNil())
	})
})
