package config_test

import (
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/certen-health/psurgen/internal/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "config suite")
}

var _ = Describe("Load", func() {
	AfterEach(func() {
		for _, key := range []string{"PSURGEN_PACK_DIR", "PSURGEN_CASE_ID", "PSURGEN_OUTPUT_DIR", "PSURGEN_TEMPLATE_ID", "PSURGEN_CLIENT_ID"} {
			os.Unsetenv(key)
		}
	})

	Context("with required environment variables set", func() {
		It("builds a valid TaskConfig", func() {
			os.Setenv("PSURGEN_PACK_DIR", "/data/pack")
			os.Setenv("PSURGEN_CASE_ID", "CASE-1")
			os.Setenv("PSURGEN_OUTPUT_DIR", "/data/out")

			cfg, err := config.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.PackDir).To(Equal("/data/pack"))
			Expect(cfg.CaseID).To(Equal("CASE-1"))
			Expect(cfg.OutputDir).To(Equal("/data/out"))
		})
	})

	Context("with required fields missing", func() {
		It("fails validation", func() {
			_, err := config.Load("")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when outputDir equals packDir", func() {
		It("fails validation with a descriptive error", func() {
			os.Setenv("PSURGEN_PACK_DIR", "/data/pack")
			os.Setenv("PSURGEN_CASE_ID", "CASE-1")
			os.Setenv("PSURGEN_OUTPUT_DIR", "/data/pack")

			_, err := config.Load("")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("outputDir must differ from packDir"))
		})
	})

	Context("environment overrides YAML", func() {
		It("prefers the environment variable over the file value", func() {
			yamlPath := writeTempYAML(`
packDir: /from/yaml
caseId: CASE-YAML
outputDir: /from/yaml/out
`)
			defer os.Remove(yamlPath)

			os.Setenv("PSURGEN_CASE_ID", "CASE-ENV")

			cfg, err := config.Load(yamlPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.CaseID).To(Equal("CASE-ENV"))
			Expect(cfg.PackDir).To(Equal("/from/yaml"))
		})
	})
})

func writeTempYAML(content string) string {
	f, err := os.CreateTemp("", "psurgen-config-*.yaml")
	Expect(err).NotTo(HaveOccurred())
	_, err = f.WriteString(content)
	Expect(err).NotTo(HaveOccurred())
	Expect(f.Close()).To(Succeed())
	return f.Name()
}
