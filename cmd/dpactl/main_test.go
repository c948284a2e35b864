package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/hdlc"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(dpa.DefaultRegistry())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestEncode(t *testing.T) {
	body := `{"mType":"iqrfEmbedCoordinator_AddrInfo","data":{"msgId":"a","req":{"nAdr":0,"param":{}}}}`

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"参数输入", "", []string{"encode", body}, "00000000ffff"},
		{"标准输入", body, []string{"encode"}, "00000000ffff"},
		{"点分输出", "", []string{"encode", "--dotted", body}, "00.00.00.00.ff.ff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("HDLC封装", func(t *testing.T) {
		out, err := run(t, "", "encode", "--hdlc", body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "7e"))
		assert.True(t, strings.HasSuffix(out, "7e"))

	})

	t.Run("HDLC解码", func(t *testing.T) {
		framed, err := hdlc.Encode([]byte{0x00, 0x00, 0x00, 0x80, 0xFF, 0xFF, 0x00, 0x40, 0x03, 0x2A})
		require.NoError(t, err)
		dec, err := run(t, "", "decode", "--hdlc", "--raw", dpa.BytesToHexString(framed))
		require.NoError(t, err)
		assert.Contains(t, dec, "iqrfRaw")
	})

	t.Run("未知mType", func(t *testing.T) {
		_, err := run(t, "", "encode", `{"mType":"nope","data":{"msgId":"x"}}`)
		assert.ErrorIs(t, err, dpa.ErrUnknownMessage)
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{"类型化响应", []string{"decode", "00.00.00.80.ff.ff.00.40.03.2a"}, []string{"iqrfEmbedCoordinator_AddrInfo", `"devNr": 3`}},
		{"附加msgId", []string{"decode", "--msg-id", "m-1", "000000 80ffff00 40032a"}, []string{`"msgId": "m-1"`}},
		{"未知命令回落raw", []string{"decode", "01.00.20.80.ff.ff.00.40.01"}, []string{"iqrfRaw"}},
		{"确认帧", []string{"decode", "01.00.06.00.ff.ff.ff.40.01.08.01"}, []string{`"confirmation":true`, `"hops":1`, `"timeslot":8`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}

	t.Run("非法十六进制", func(t *testing.T) {
		_, err := run(t, "", "decode", "zz")
		assert.Error(t, err)
	})
	t.Run("帧过短", func(t *testing.T) {
		_, err := run(t, "", "decode", "01.00")
		assert.ErrorIs(t, err, dpa.ErrFrameTooShort)
	})
}

func TestList(t *testing.T) {
	out, err := run(t, "", "list")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, len(dpa.DefaultRegistry().Entries())+1)
	assert.Contains(t, out, "iqrfEmbedOs_Read")
	assert.Contains(t, lines[len(lines)-1], dpa.GenericRaw.Name)

	out, err = run(t, "", "list", "--peripheral", "os")
	require.NoError(t, err)
	assert.Contains(t, out, "iqrfEmbedOs_Read")
	assert.NotContains(t, out, "iqrfEmbedCoordinator_AddrInfo")
	assert.NotContains(t, out, dpa.GenericRaw.Name)
}
