package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

// EnumFlag is a string flag restricted to a fixed set of values.
type EnumFlag struct {
	DefaultOptionIndex int
	Description        string
	Options            [][2]string // [value, description] pairs
}

type enumValue struct {
	value *string
	flag  *EnumFlag
}

func (ev *enumValue) String() string {
	return *ev.value
}

func (ev *enumValue) Set(value string) error {
	if slices.IndexFunc(ev.flag.Options, func(option [2]string) bool {
		return option[0] == value
	}) == -1 {
		return fmt.Errorf("must be any of: %s", strings.Join(ev.values(), "|"))
	}
	*ev.value = value
	return nil
}

func (ev *enumValue) Type() string {
	return "string"
}

func (ev *enumValue) values() []string {
	values := []string{}
	for _, option := range ev.flag.Options {
		values = append(values, option[0])
	}
	return values
}

func (ev *enumValue) usage() string {
	options := []string{}
	for _, option := range ev.flag.Options {
		if option[1] != "" {
			options = append(options, option[0]+" ("+option[1]+")")
		} else {
			options = append(options, option[0])
		}
	}
	return ev.flag.Description + ". Any of: " + strings.Join(options, " | ")
}

func AddEnumFlagP(command *cobra.Command, value *string, name string, shorthand string, flag *EnumFlag) {
	ev := &enumValue{value: value, flag: flag}
	*value = flag.Options[flag.DefaultOptionIndex][0]
	command.Flags().VarP(ev, name, shorthand, ev.usage())
	command.RegisterFlagCompletionFunc(name, func(cmd *cobra.Command, args []string, toComplete string) (
		[]string, cobra.ShellCompDirective) {
		completions := []string{}
		for _, option := range flag.Options {
			completions = append(completions, option[0]+"\t"+option[1])
		}
		return completions, cobra.ShellCompDirectiveDefault
	})
}

// Output formats of commands that print data.
var OutputFormatFlag = &EnumFlag{
	Description: "Output format",
	Options: [][2]string{
		{"table", ""},
		{"json", ""},
	},
}
