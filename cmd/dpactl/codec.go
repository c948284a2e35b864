package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/hdlc"
)

// encode 参数为 JSON 文本，"-" 或缺省时读标准输入
func encodeCommand(registry *dpa.Registry) *cobra.Command {
	var withHDLC, dotted bool
	cmd := &cobra.Command{
		Use:   "encode [JSON|-]",
		Short: "Encode a daemon JSON request into a DPA frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req, err := registry.RequestFromJSON(in)
			if err != nil {
				return err
			}
			frame := req.ToDPA()
			if withHDLC {
				if frame, err = hdlc.Encode(frame); err != nil {
					return fmt.Errorf("hdlc encode: %w", err)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatHex(frame, dotted))
			return err
		},
	}
	cmd.Flags().BoolVar(&withHDLC, "hdlc", false, "wrap the frame in HDLC framing")
	cmd.Flags().BoolVar(&dotted, "dotted", false, "print dotted hex (00.00.06.03.ff.ff)")
	return cmd
}

func decodeCommand(registry *dpa.Registry) *cobra.Command {
	var withHDLC, raw bool
	var msgID string
	cmd := &cobra.Command{
		Use:   "decode HEX",
		Short: "Decode a DPA response frame into daemon JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := parseHex(args[0])
			if err != nil {
				return err
			}
			if withHDLC {
				if frame, err = hdlc.Decode(frame); err != nil {
					return fmt.Errorf("hdlc decode: %w", err)
				}
			}
			out, err := decodeFrame(registry, frame, raw, msgID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&withHDLC, "hdlc", false, "input is HDLC framed")
	cmd.Flags().BoolVar(&raw, "raw", false, "decode as iqrfRaw regardless of pnum/pcmd")
	cmd.Flags().StringVar(&msgID, "msg-id", "", "msgId to attach to the response")
	return cmd
}

// decodeFrame 确认帧单独输出路由参数，未知命令回落为 iqrfRaw
func decodeFrame(registry *dpa.Registry, frame []byte, raw bool, msgID string) ([]byte, error) {
	if dpa.IsConfirmation(frame) {
		c, err := dpa.ParseConfirmation(frame)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"confirmation":    true,
			"nAdr":            c.Header.NADR,
			"pnum":            c.Header.PNUM,
			"pcmd":            c.Header.PCMD,
			"hwpid":           c.Header.HWPID,
			"hops":            c.Hops,
			"timeslot":        c.Timeslot,
			"hopsResponse":    c.HopsResponse,
			"responseTimeout": c.ResponseTimeout(dpa.ResponsePDataMaxLen).String(),
		})
	}

	var (
		rsp dpa.Response
		err error
	)
	if raw {
		rsp, err = dpa.RawResponseFromDPA(frame)
	} else {
		rsp, err = registry.ResponseFromDPA(frame)
		if errors.Is(err, dpa.ErrUnknownMessage) {
			rsp, err = dpa.RawResponseFromDPA(frame)
		}
	}
	if err != nil {
		return nil, err
	}
	if msgID != "" {
		rsp = dpa.AttachMsgID(rsp, msgID)
	}
	out, err := rsp.ToJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return out, nil
	}
	return buf.Bytes(), nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return bytes.TrimSpace(b), nil
}

// parseHex 同时接受点分与连续十六进制，忽略空白
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if strings.Contains(s, ".") {
		return dpa.ParseDottedHex(s)
	}
	return dpa.HexStringToBytes(s)
}

func formatHex(b []byte, dotted bool) string {
	if dotted {
		return dpa.DottedHex(b)
	}
	return dpa.BytesToHexString(b)
}
