/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package logging

import "github.com/spf13/pflag"

// AddFlags adds the logging flags to the given flag set.
func AddFlags(set *pflag.FlagSet) {
	_ = set.String(
		levelFlagName,
		"info",
		"Log level. Possible values are 'debug', 'info', 'warn' and 'error'. The "+
			"default is 'info.",
	)
	_ = set.StringArray(
		fileFlagName,
		[]string{"stdout"},
		"Log file. The value can also be 'stdout' or 'stderr' and then the log will be "+
			"written to the standard output or error stream of the process. Can be "+
			"repeated to write the log to several places, for example '--log-file stdout "+
			"--log-file steamcmd_downloader.log'.",
	)
	_ = set.StringArray(
		fieldFlagName,
		[]string{},
		"Field to add to all log messages. The value can be a percent sign followed by "+
			"one of the letters that indicate a special value, or a field name "+
			"followed by an equals sign and the field value. For example '%p' "+
			"results in a field named 'pid' containing the identifier of the "+
			"process, and 'my-field=my-value' results in adding a field named "+
			"'my-field' with value 'my-value'.",
	)
	_ = set.StringSlice(
		fieldsFlagName,
		[]string{},
		"Comma separated list of fields to add to all log messages. See the "+
			"'--log-field' option for details of allowed values. Note that "+
			"this doesn't allow values containing commas, use the '--log-field' "+
			"option if you need that.",
	)
	_ = set.Bool(
		redactFlagName,
		true,
		"Enables or disables redacting security sensitive data, like Steam passwords, "+
			"from the log.",
	)
}

const (
	levelFlagName  = "log-level"
	fileFlagName   = "log-file"
	fieldFlagName  = "log-field"
	fieldsFlagName = "log-fields"
	redactFlagName = "log-redact"
)

// FileFlagName is the name of the flag that selects where the log is written. Commands that have
// their own default destinations check if it was changed.
const FileFlagName = fileFlagName
