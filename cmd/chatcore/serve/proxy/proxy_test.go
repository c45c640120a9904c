package proxycmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	proxycmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve/proxy"
	"github.com/NICxKMS/chatcore/pkg/logger"
)

var _ = Describe("NewProxyCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := proxycmder.NewProxyCmd()
		Expect(cmd.Use).To(Equal("proxy"))
	})

	It("has a --listen flag with shorthand", func() {
		cmd := proxycmder.NewProxyCmd()
		flag := cmd.Flags().Lookup("listen")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("l"))
	})

	It("has an --upstream flag with the default backend", func() {
		cmd := proxycmder.NewProxyCmd()
		flag := cmd.Flags().Lookup("upstream")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("u"))
		Expect(flag.DefValue).To(Equal("https://api.openai.com"))
	})

	It("has eventstream flags", func() {
		cmd := proxycmder.NewProxyCmd()
		Expect(cmd.Flags().Lookup("event-provider")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("event-brokers")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("event-topic")).NotTo(BeNil())
	})
})

var _ = Describe("NewPublisher", func() {
	var v *viper.Viper

	BeforeEach(func() {
		v = viper.New()
	})

	It("defaults to the no-op publisher", func() {
		publisher, err := proxycmder.NewPublisher(v, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher).NotTo(BeNil())
		Expect(publisher.Close()).To(Succeed())
	})

	It("creates the no-op publisher when named explicitly", func() {
		v.Set("eventstream.provider", "nop")
		publisher, err := proxycmder.NewPublisher(v, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher).NotTo(BeNil())
		Expect(publisher.Close()).To(Succeed())
	})

	It("requires a topic for the kafka publisher", func() {
		v.Set("eventstream.provider", "kafka")
		v.Set("eventstream.brokers", "localhost:9092")
		_, err := proxycmder.NewPublisher(v, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("eventstream.topic")))
	})

	It("creates a kafka publisher when brokers and topic are set", func() {
		v.Set("eventstream.provider", "kafka")
		v.Set("eventstream.brokers", "localhost:9092,localhost:9093")
		v.Set("eventstream.topic", "chatcore.streams")

		publisher, err := proxycmder.NewPublisher(v, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher).NotTo(BeNil())
		Expect(publisher.Close()).To(Succeed())
	})

	It("rejects unknown publisher names", func() {
		v.Set("eventstream.provider", "rabbitmq")
		_, err := proxycmder.NewPublisher(v, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unknown eventstream provider")))
	})
})
