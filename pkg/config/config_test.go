package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NICxKMS/chatcore/pkg/config"
)

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns defaults when no config file exists", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Driver).To(Equal("sqlite"))
			Expect(cfg.Proxy.Listen).To(Equal(":8080"))
			Expect(cfg.API.Listen).To(Equal(":8081"))
			Expect(cfg.EventStream.Provider).To(Equal("nop"))
		})

		It("merges file values over defaults", func() {
			content := `
[proxy]
provider = "anthropic"
upstream = "https://api.anthropic.com"

[providers]
anthropic_key = "sk-ant-test"
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0o600)).To(Succeed())

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Proxy.Provider).To(Equal("anthropic"))
			Expect(cfg.Providers.AnthropicKey).To(Equal("sk-ant-test"))
			// Values absent from the file keep their defaults.
			Expect(cfg.Proxy.Listen).To(Equal(":8080"))
			Expect(cfg.Storage.Driver).To(Equal("sqlite"))
		})
	})

	Describe("SaveConfig", func() {
		It("round trips a config", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Storage.SQLitePath = "/tmp/chatcore.db"
			cfg.EventStream.Provider = "kafka"
			cfg.EventStream.Brokers = "localhost:9092"

			Expect(cfger.SaveConfig(cfg)).To(Succeed())

			loaded, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Storage.SQLitePath).To(Equal("/tmp/chatcore.db"))
			Expect(loaded.EventStream.Provider).To(Equal("kafka"))
			Expect(loaded.EventStream.Brokers).To(Equal("localhost:9092"))
		})

		It("rejects nil configs", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfger.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		It("sets and gets values by dotted key", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("proxy.upstream", "http://localhost:9999")).To(Succeed())

			got, err := cfger.GetConfigValue("proxy.upstream")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("http://localhost:9999"))
		})

		It("parses boolean keys", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("catalog.include_experimental", "true")).To(Succeed())

			got, err := cfger.GetConfigValue("catalog.include_experimental")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("true"))

			Expect(cfger.SetConfigValue("catalog.include_experimental", "banana")).NotTo(Succeed())
		})

		It("rejects unknown keys", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfger.SetConfigValue("nope.nope", "x")).NotTo(Succeed())
			_, err = cfger.GetConfigValue("nope.nope")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.driver",
				"proxy.upstream",
				"client.api_target",
				"providers.openai_key",
				"eventstream.topic",
			))

			seen := map[string]bool{}
			for _, k := range keys {
				Expect(seen[k]).To(BeFalse(), "duplicate key %q", k)
				seen[k] = true
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("rejects unsupported versions", func() {
		_, err := config.ParseConfigTOML([]byte("version = 99"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed TOML", func() {
		_, err := config.ParseConfigTOML([]byte("= not toml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns presets for known providers", func() {
		for _, name := range config.ValidPresetNames() {
			cfg, err := config.PresetConfig(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Proxy.Provider).To(Equal(name))
			Expect(cfg.Proxy.Upstream).NotTo(BeEmpty())
		}
	})

	It("rejects unknown presets", func() {
		_, err := config.PresetConfig("nope")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("applies defaults when nothing else is set", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("proxy.listen")).To(Equal(":8080"))
		Expect(v.GetString("eventstream.provider")).To(Equal("nop"))
	})

	It("lets the config file override defaults", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"),
			[]byte("[proxy]\nlisten = \":7070\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("proxy.listen")).To(Equal(":7070"))
	})

	It("lets environment variables override the config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"),
			[]byte("[proxy]\nlisten = \":7070\"\n"), 0o600)).To(Succeed())

		Expect(os.Setenv("CHATCORE_PROXY_LISTEN", ":6060")).To(Succeed())
		DeferCleanup(func() { os.Unsetenv("CHATCORE_PROXY_LISTEN") })

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("proxy.listen")).To(Equal(":6060"))
	})
})
