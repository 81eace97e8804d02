/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"time"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Progress", func() {
	DescribeTable(
		"Parses lines",
		func(line string, expected Progress) {
			actual := ParseProgress(line)
			Expect(actual.HasPercent).To(Equal(expected.HasPercent))
			Expect(actual.Percent).To(BeNumerically("~", expected.Percent, 1e-9))
			Expect(actual.HasSize).To(Equal(expected.HasSize))
			Expect(actual.CurrentMB).To(BeNumerically("~", expected.CurrentMB, 1e-9))
			Expect(actual.TotalMB).To(BeNumerically("~", expected.TotalMB, 1e-9))
			Expect(actual.Success).To(Equal(expected.Success))
			Expect(actual.Failure).To(Equal(expected.Failure))
		},
		Entry(
			"Empty line",
			"",
			Progress{},
		),
		Entry(
			"Unrelated line",
			"Loading Steam API...OK",
			Progress{},
		),
		Entry(
			"Progress without units",
			" Update state (0x61) downloading, progress: 45.67 (1234 / 5678)",
			Progress{},
		),
		Entry(
			"Percentage with sign",
			"Downloading update (12.5%)",
			Progress{HasPercent: true, Percent: 12.5},
		),
		Entry(
			"Integer percentage",
			"[ 80%] Downloading update",
			Progress{HasPercent: true, Percent: 80},
		),
		Entry(
			"Sizes in megabytes",
			"Downloading 10.5 MB / 100 MB",
			Progress{HasSize: true, CurrentMB: 10.5, TotalMB: 100},
		),
		Entry(
			"Sizes in kilobytes",
			"512 KB / 2048 KB",
			Progress{HasSize: true, CurrentMB: 0.5, TotalMB: 2},
		),
		Entry(
			"Sizes in gigabytes",
			"1.5 GB / 2 GB",
			Progress{HasSize: true, CurrentMB: 1536, TotalMB: 2048},
		),
		Entry(
			"Sizes in bytes",
			"1048576 B / 2097152 B",
			Progress{HasSize: true, CurrentMB: 1, TotalMB: 2},
		),
		Entry(
			"Mixed units",
			"512 MB / 1 GB",
			Progress{HasSize: true, CurrentMB: 512, TotalMB: 1024},
		),
		Entry(
			"Unknown unit",
			"3 blocks / 9 blocks",
			Progress{HasSize: true, CurrentMB: 3, TotalMB: 9},
		),
		Entry(
			"Percentage and sizes",
			"[ 50%] 1 GB / 2 GB",
			Progress{
				HasPercent: true,
				Percent:    50,
				HasSize:    true,
				CurrentMB:  1024,
				TotalMB:    2048,
			},
		),
		Entry(
			"Success",
			"Success! App '730' fully installed.",
			Progress{Success: true},
		),
		Entry(
			"Error",
			"ERROR! Failed to install app '730' (No subscription)",
			Progress{Failure: true},
		),
		Entry(
			"Failed",
			"Failed to load something",
			Progress{Failure: true},
		),
		Entry(
			"Success wins over failure",
			"Success! Failed nothing",
			Progress{Success: true},
		),
	)

	It("Calculates the speed and remaining time", func() {
		speed, remaining, ok := Rates(100, 400, 10*time.Second)
		Expect(ok).To(BeTrue())
		Expect(speed).To(BeNumerically("~", 10, 1e-9))
		Expect(remaining).To(Equal(30 * time.Second))
	})

	It("Truncates the remaining time to seconds", func() {
		_, remaining, ok := Rates(3, 10, 2*time.Second)
		Expect(ok).To(BeTrue())
		Expect(remaining).To(Equal(4 * time.Second))
	})

	It("Doesn't calculate rates without elapsed time", func() {
		speed, remaining, ok := Rates(100, 400, 0)
		Expect(ok).To(BeFalse())
		Expect(speed).To(BeZero())
		Expect(remaining).To(BeZero())
	})

	It("Doesn't calculate the remaining time without speed", func() {
		speed, remaining, ok := Rates(0, 400, 5*time.Second)
		Expect(ok).To(BeFalse())
		Expect(speed).To(BeZero())
		Expect(remaining).To(BeZero())
	})

	It("Doesn't return negative remaining time", func() {
		_, remaining, ok := Rates(500, 400, 5*time.Second)
		Expect(ok).To(BeTrue())
		Expect(remaining).To(BeZero())
	})
})
