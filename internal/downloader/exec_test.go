/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package downloader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"

	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/steamcmd"
)

var _ = Describe("SteamCMD process", func() {
	var (
		ctx        context.Context
		layout     config.Layout
		downloader *Downloader
	)

	BeforeEach(func() {
		if runtime.GOOS == "windows" {
			Skip("Uses shell scripts")
		}
		var err error
		ctx = context.Background()
		layout, err = config.NewLayout(GinkgoT().TempDir())
		Expect(err).ToNot(HaveOccurred())
		err = layout.Ensure()
		Expect(err).ToNot(HaveOccurred())
	})

	// rewrite replaces the SteamCMD executable with a shell script that writes the given download
	// output.
	rewrite := func(output string) {
		content := "#!/bin/sh\n" +
			"case \"$*\" in\n" +
			"*app_update*)\n" +
			output + "\n" +
			";;\n" +
			"esac\n"
		file := filepath.Join(layout.SteamCMDDir, "steamcmd.sh")
		err := os.WriteFile(file, []byte(content), 0755)
		Expect(err).ToNot(HaveOccurred())
	}

	// script writes the SteamCMD script and creates the downloader that runs it.
	script := func(output string) {
		rewrite(output)
		runner, err := steamcmd.NewExecRunner().
			SetLogger(logger).
			SetDir(layout.SteamCMDDir).
			Build()
		Expect(err).ToNot(HaveOccurred())
		client, err := steamcmd.NewClient().
			SetLogger(logger).
			SetRunner(runner).
			Build()
		Expect(err).ToNot(HaveOccurred())
		downloader, err = New().
			SetLogger(logger).
			SetLayout(layout).
			SetClient(client).
			SetInstaller(&fakeInstaller{installed: true}).
			SetPublicURL("http://localhost:7860").
			Build()
		Expect(err).ToNot(HaveOccurred())
	}

	It("Finishes when an output line is very long", func() {
		script(
			"head -c 2000000 /dev/zero | tr '\\0' a\n" +
				"echo\n" +
				"echo \"Success! App '740' fully installed.\"",
		)
		_, err := downloader.Start(ctx, Request{
			Game: "740",
			Credentials: steamcmd.Credentials{
				Anonymous: true,
			},
		})
		Expect(err).ToNot(HaveOccurred())

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		err = downloader.Wait(waitCtx)
		Expect(err).ToNot(HaveOccurred())

		status := downloader.Status()
		Expect(status.State).To(Equal(StateCompleted))
		Expect(status.Log).To(ContainElement("Success! App '740' fully installed."))
		Expect(status.PublicLinks).To(HaveLen(2))
	})

	It("Reports a process that ends without result", func() {
		script("echo \"Update state (0x61) downloading, progress: 10.00 (1 / 10)\"")
		_, err := downloader.Start(ctx, Request{
			Game: "740",
			Credentials: steamcmd.Credentials{
				Anonymous: true,
			},
		})
		Expect(err).ToNot(HaveOccurred())

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		err = downloader.Wait(waitCtx)
		Expect(err).ToNot(HaveOccurred())

		status := downloader.Status()
		Expect(status.State).To(Equal(StateError))
		Expect(status.Log).To(ContainElement("Process ended unexpectedly"))
	})

	It("Stops the children of SteamCMD when cancelled", func() {
		script(
			"echo started\n" +
				"sleep 20\n" +
				"echo \"Success! App '740' fully installed.\"",
		)
		request := Request{
			Game: "740",
			Credentials: steamcmd.Credentials{
				Anonymous: true,
			},
		}
		_, err := downloader.Start(ctx, request)
		Expect(err).ToNot(HaveOccurred())
		Eventually(func() []string {
			return downloader.Status().Log
		}, 10*time.Second).Should(ContainElement("started"))

		Expect(downloader.Cancel(ctx)).To(BeTrue())
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		err = downloader.Wait(waitCtx)
		Expect(err).ToNot(HaveOccurred())
		Expect(downloader.Status().State).To(Equal(StateCancelled))
		Expect(downloader.Cancel(ctx)).To(BeFalse())

		rewrite("echo \"Success! App '740' fully installed.\"")
		_, err = downloader.Start(ctx, request)
		Expect(err).ToNot(HaveOccurred())
		err = downloader.Wait(waitCtx)
		Expect(err).ToNot(HaveOccurred())
		Expect(downloader.Status().State).To(Equal(StateCompleted))
	})
})
