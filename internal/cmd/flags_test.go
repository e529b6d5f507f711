package cmd

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/stretchr/testify/require"
)

var flagParseErrorTests = []struct {
	in     string
	flag   string
	reason string
}{
	{
		"unknown flag: --nope",
		"--nope",
		"Flag %s is missing.",
	},
	{
		"flag needs an argument: --role",
		"--role",
		"Flag %s needs an argument.",
	},
	{
		"flag needs an argument: 'R' in -R",
		"-R",
		"Flag %s needs an argument.",
	},
	{
		"flag needs an argument: --max-completion-tokens",
		"--max-completion-tokens",
		"Flag %s needs an argument.",
	},
	{
		"unknown shorthand flag: 'z' in -z",
		"-z",
		"Short flag %s is missing.",
	},
	{
		`invalid argument "20dd" for "--request-timeout" flag: time: unknown unit "dd" in duration "20dd"`,
		"--request-timeout",
		"Flag %s have an invalid argument.",
	},
	{
		`invalid argument "sdfjasdl" for "--max-tokens" flag: strconv.ParseInt: parsing "sdfjasdl": invalid syntax`,
		"--max-tokens",
		"Flag %s have an invalid argument.",
	},
	{
		`invalid argument "nope" for "-r, --raw" flag: strconv.ParseBool: parsing "nope": invalid syntax`,
		"-r, --raw",
		"Flag %s have an invalid argument.",
	},
}

func TestFlagParseError(t *testing.T) {
	for _, tf := range flagParseErrorTests {
		t.Run(tf.in, func(t *testing.T) {
			err := newFlagParseError(errors.New(tf.in))
			require.Equal(t, tf.flag, err.Flag())
			require.Equal(t, tf.reason, err.ReasonFormat())
			require.Equal(t, tf.in, err.Error())
		})
	}
}

func TestMaxCompletionTokensFlag(t *testing.T) {
	t.Run("flag is registered and can be parsed", func(t *testing.T) {
		cfg := config.Config{}
		cmd := NewRootCmd(BuildInfo{}, cfg, nil)

		err := cmd.ParseFlags([]string{"--max-completion-tokens", "4096"})
		require.NoError(t, err)

		flag := cmd.Flag("max-completion-tokens")
		require.NotNil(t, flag)
		require.Equal(t, "4096", flag.Value.String())
	})

	t.Run("accepts zero value", func(t *testing.T) {
		cfg := config.Config{}
		cmd := NewRootCmd(BuildInfo{}, cfg, nil)

		err := cmd.ParseFlags([]string{"--max-completion-tokens", "0"})
		require.NoError(t, err)

		flag := cmd.Flag("max-completion-tokens")
		require.NotNil(t, flag)
		require.Equal(t, "0", flag.Value.String())
	})
}

func TestRequestTimeoutFlag(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"90s": 90 * time.Second,
		"2m":  2 * time.Minute,
		"1d":  24 * time.Hour,
	} {
		t.Run(in, func(t *testing.T) {
			cmd := NewRootCmd(BuildInfo{}, config.Config{}, nil)
			require.NoError(t, cmd.ParseFlags([]string{"--request-timeout", in}))

			flag := cmd.Flag("request-timeout")
			require.NotNil(t, flag)
			require.Equal(t, want.String(), flag.Value.String())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		cmd := NewRootCmd(BuildInfo{}, config.Config{}, nil)
		require.Error(t, cmd.ParseFlags([]string{"--request-timeout", "soon"}))
	})
}

func TestSharedFlagsReachSubcommands(t *testing.T) {
	root := NewRootCmd(BuildInfo{}, config.Config{}, nil)
	image, _, err := root.Find([]string{"image"})
	require.NoError(t, err)
	require.NotNil(t, image.InheritedFlags().Lookup("test"))
	require.NotNil(t, image.InheritedFlags().Lookup("model"))
	require.NotNil(t, image.Flags().Lookup("output"))
	require.NotNil(t, image.Flags().ShorthandLookup("s"))
	require.NotNil(t, image.Flags().ShorthandLookup("d"))
}

func TestImageShowAndDeleteExclusive(t *testing.T) {
	root := NewRootCmd(BuildInfo{}, config.Config{}, nil)
	root.SetArgs([]string{"image", "--show", "ab12cd34", "--delete", "ab12cd34"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	require.ErrorContains(t, err, "none of the others can be")
}
