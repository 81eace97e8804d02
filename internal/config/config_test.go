/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server configuration", func() {
	var flags *pflag.FlagSet

	BeforeEach(func() {
		clearEnv()
		flags = pflag.NewFlagSet("", pflag.ContinueOnError)
		AddServerFlags(flags)
	})

	It("Uses the defaults", func() {
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Port).To(Equal(7860))
		Expect(config.APIAddress).To(Equal("0.0.0.0:7860"))
		Expect(config.MetricsAddress).To(Equal("localhost:8008"))
		Expect(config.PublicURL).To(Equal("http://localhost:7860"))
		Expect(config.Store.Type).To(Equal(StoreBolt))
		Expect(config.Store.Postgres.Port).To(Equal("5432"))
		Expect(config.Store.Postgres.SSLMode).To(Equal("disable"))
	})

	It("Reads the unprefixed port and public URL", func() {
		setEnv("PORT", "8080")
		setEnv("RAILWAY_PUBLIC_URL", "https://games.example.com/")
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Port).To(Equal(8080))
		Expect(config.APIAddress).To(Equal("0.0.0.0:8080"))
		Expect(config.PublicURL).To(Equal("https://games.example.com"))
	})

	It("Prefers the prefixed variables", func() {
		setEnv("PORT", "8080")
		setEnv("STEAMDL_PORT", "9090")
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Port).To(Equal(9090))
	})

	It("Derives the public URL from the port", func() {
		setEnv("PORT", "8080")
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.PublicURL).To(Equal("http://localhost:8080"))
	})

	It("Reads the store configuration", func() {
		setEnv("STEAMDL_STORE_TYPE", "postgres")
		setEnv("STEAMDL_STORE_POSTGRES_HOST", "db.example.com")
		setEnv("STEAMDL_STORE_POSTGRES_DATABASE", "steamdl")
		setEnv("STEAMDL_STORE_POSTGRES_SSL_MODE", "require")
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Store.Type).To(Equal(StorePostgres))
		Expect(config.Store.Postgres.Host).To(Equal("db.example.com"))
		Expect(config.Store.Postgres.Database).To(Equal("steamdl"))
		Expect(config.Store.Postgres.SSLMode).To(Equal("require"))
	})

	It("Lets flags override the environment", func() {
		setEnv("RAILWAY_PUBLIC_URL", "https://env.example.com")
		setEnv("STEAMDL_API_ADDRESS", "127.0.0.1:1234")
		err := flags.Parse([]string{
			"--public-url", "https://flag.example.com",
			"--api-listener-address", "127.0.0.1:4321",
			"--root", "/srv/steamdl",
		})
		Expect(err).ToNot(HaveOccurred())
		config, err := Load(flags)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.PublicURL).To(Equal("https://flag.example.com"))
		Expect(config.APIAddress).To(Equal("127.0.0.1:4321"))
		Expect(config.Root).To(Equal("/srv/steamdl"))
	})

	It("Works without flags", func() {
		config, err := Load(nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(config.APIAddress).To(Equal("0.0.0.0:7860"))
	})

	It("Fails if the port isn't a number", func() {
		setEnv("PORT", "junk")
		_, err := Load(flags)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("environment"))
	})

	DescribeTable(
		"Validation",
		func(modify func(*ServerConfig), expected string) {
			config := &ServerConfig{
				Port:       7860,
				APIAddress: "0.0.0.0:7860",
				PublicURL:  "http://localhost:7860",
				Store: StoreConfig{
					Type: StoreBolt,
				},
			}
			modify(config)
			err := config.Validate()
			if expected == "" {
				Expect(err).ToNot(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(expected))
			}
		},
		Entry(
			"Valid",
			func(c *ServerConfig) {},
			"",
		),
		Entry(
			"Port out of range",
			func(c *ServerConfig) { c.Port = 70000 },
			"out of range",
		),
		Entry(
			"Empty listener address",
			func(c *ServerConfig) { c.APIAddress = "" },
			"listener address",
		),
		Entry(
			"Empty public URL",
			func(c *ServerConfig) { c.PublicURL = "" },
			"public URL",
		),
		Entry(
			"Unknown store",
			func(c *ServerConfig) { c.Store.Type = "mongo" },
			"unknown store type 'mongo'",
		),
		Entry(
			"Postgres without host",
			func(c *ServerConfig) {
				c.Store.Type = StorePostgres
				c.Store.Postgres.Database = "steamdl"
			},
			"host and database",
		),
		Entry(
			"Postgres without database",
			func(c *ServerConfig) {
				c.Store.Type = StorePostgres
				c.Store.Postgres.Host = "localhost"
			},
			"host and database",
		),
		Entry(
			"Complete postgres",
			func(c *ServerConfig) {
				c.Store.Type = StorePostgres
				c.Store.Postgres.Host = "localhost"
				c.Store.Postgres.Database = "steamdl"
			},
			"",
		),
	)
})
