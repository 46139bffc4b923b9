package storepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveStorePath", func() {
	var (
		origHome    string
		origXDG     string
		origSpoolDB string
		origSpoolSQ string
		origCwd     string
	)

	BeforeEach(func() {
		origHome = os.Getenv("HOME")
		origXDG = os.Getenv("XDG_DATA_HOME")
		origSpoolDB = os.Getenv("SPOOL_DB")
		origSpoolSQ = os.Getenv("SPOOL_SQLITE")
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.Setenv("HOME", origHome)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", origXDG)).To(Succeed())
		Expect(os.Setenv("SPOOL_DB", origSpoolDB)).To(Succeed())
		Expect(os.Setenv("SPOOL_SQLITE", origSpoolSQ)).To(Succeed())
		Expect(os.Chdir(origCwd)).To(Succeed())
	})

	It("prefers an explicit override over everything else", func() {
		Expect(os.Setenv("SPOOL_SQLITE", "/tmp/env.db")).To(Succeed())

		path, err := ResolveStorePath("/tmp/flag.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/flag.db"))
	})

	It("prefers SPOOL_SQLITE when set", func() {
		Expect(os.Setenv("SPOOL_SQLITE", "/tmp/custom.db")).To(Succeed())
		Expect(os.Setenv("SPOOL_DB", "")).To(Succeed())

		path, err := ResolveStorePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("resolves ~/.spool/spool.db when present", func() {
		homeDir, err := os.MkdirTemp("", "spool-home-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(homeDir)
		})

		tmpDir, err := os.MkdirTemp("", "spool-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		Expect(os.Setenv("HOME", homeDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("SPOOL_DB", "")).To(Succeed())
		Expect(os.Setenv("SPOOL_SQLITE", "")).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		dbPath := filepath.Join(homeDir, ".spool", "spool.db")
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveStorePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("fails when nothing resolves", func() {
		tmpDir, err := os.MkdirTemp("", "spool-empty-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		Expect(os.Setenv("HOME", tmpDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("SPOOL_DB", "")).To(Succeed())
		Expect(os.Setenv("SPOOL_SQLITE", "")).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		_, err = ResolveStorePath("")
		Expect(err).To(HaveOccurred())
	})
})
