package dpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// responseFrame 构造响应帧，pdata 按 i*7+1 填充
func responseFrame(t MessageType, rcode ResponseCode, pdataLen int) []byte {
	frame := []byte{0x01, 0x00, byte(t.PNUM), byte(t.PCMD.Response()), 0x34, 0x12, byte(rcode), 0x5A}
	if t.PNUM == PeripheralCoordinator {
		frame[OffsetNADRLo] = 0
	}
	for i := 0; i < pdataLen; i++ {
		frame = append(frame, byte(i*7+1))
	}
	return frame
}

func TestResponse_FailedRCodeSkipsPayload(t *testing.T) {
	tests := []struct {
		name  string
		rcode ResponseCode
	}{
		{"ERROR_FAIL", RCodeErrorFail},
		{"ERROR_PNUM", RCodeErrorPNUM},
		{"用户错误", 0x25},
		{"异步错误", RCodeErrorData | RCodeAsyncResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := responseFrame(OSRead, tt.rcode, 30)
			rsp, err := OSReadResponse.FromDPA(frame)
			require.NoError(t, err)

			assert.False(t, rsp.Outcome().OK())
			assert.Equal(t, tt.rcode, rsp.Outcome().Status())
			v, ok := rsp.Outcome().Get()
			assert.False(t, ok)
			assert.Zero(t, v)
			_, ok = rsp.Result()
			assert.False(t, ok)
			assert.Len(t, rsp.PData(), 30, "载荷字节原样保留")
			assert.Equal(t, frame, rsp.ToDPA())

			out, err := rsp.ToJSON()
			require.NoError(t, err)
			assert.NotContains(t, string(out), `"result"`)
		})
	}

	t.Run("失败帧长度不足最小载荷也可解析", func(t *testing.T) {
		rsp, err := OSReadResponse.FromDPA(responseFrame(OSRead, RCodeErrorFail, 0))
		require.NoError(t, err)
		assert.False(t, rsp.Outcome().OK())
	})
}

func TestResponse_AsyncOKIsDecoded(t *testing.T) {
	rsp, err := ThermometerReadResponse.FromDPA(responseFrame(ThermometerRead, RCodeAsyncResponse, 3))
	require.NoError(t, err)
	assert.True(t, rsp.RCode().IsAsync())
	assert.True(t, rsp.Outcome().OK())
}

func TestResponse_OutcomeMatch(t *testing.T) {
	frame := []byte{0x03, 0x00, 0x0A, 0x80, 0xFF, 0xFF, 0x00, 0x00, 0x19, 0x90, 0x01}
	rsp, err := ThermometerReadResponse.FromDPA(frame)
	require.NoError(t, err)

	var got ThermometerResult
	rsp.Outcome().Match(func(r ThermometerResult) { got = r }, func(ResponseCode) { t.Fatal("不应走失败分支") })
	assert.Equal(t, 25, got.Temperature)
	assert.Equal(t, 0x0190, got.Value12b)
	assert.InDelta(t, 25.0, got.Celsius(), 0.001)

	failed, err := ThermometerReadResponse.FromDPA(responseFrame(ThermometerRead, RCodeErrorNADR, 0))
	require.NoError(t, err)
	var status ResponseCode
	failed.Outcome().Match(nil, func(c ResponseCode) { status = c })
	assert.Equal(t, RCodeErrorNADR, status)
}

func TestResponse_Truncated(t *testing.T) {
	reg := DefaultRegistry()
	for _, e := range reg.Entries() {
		t.Run(e.Type.Name, func(t *testing.T) {
			full := responseFrame(e.Type, RCodeOK, ResponsePDataMaxLen)
			if e.Type == GenericRaw {
				full = responseFrame(OSRead, RCodeOK, ResponsePDataMaxLen)
			}
			for n := 0; n < ResponseHeaderLen; n++ {
				_, err := e.ResponseFromDPA(full[:n])
				assert.ErrorIs(t, err, ErrFrameTooShort, "长度 %d", n)
			}
			assert.NotPanics(t, func() {
				for n := ResponseHeaderLen; n <= len(full); n++ {
					_, err := e.ResponseFromDPA(full[:n])
					if err != nil {
						assert.ErrorIs(t, err, ErrFrameTooShort, "长度 %d", n)
					}
				}
			})
		})
	}
}

func TestResponse_MinimumPayload(t *testing.T) {
	tests := []struct {
		name string
		from func([]byte) error
		t    MessageType
		min  int
	}{
		{"AddrInfo", wrap(CoordinatorAddrInfoResponse), CoordinatorAddrInfo, 2},
		{"BondedDevices", wrap(CoordinatorBondedDevicesResponse), CoordinatorBondedDevices, BitmapLen},
		{"Backup", wrap(CoordinatorBackupResponse), CoordinatorBackup, NetworkDataLen},
		{"NodeRead", wrap(NodeReadResponse), NodeRead, 12},
		{"OSRead", wrap(OSReadResponse), OSRead, 12},
		{"ReadCfg", wrap(OSReadCfgResponse), OSReadCfg, TrConfigurationLen + 2},
		{"Thermometer", wrap(ThermometerReadResponse), ThermometerRead, 3},
		{"FRCSend", wrap(FRCSendResponse), FRCSend, 1 + FrcDataLen},
		{"FRCExtraResult", wrap(FRCExtraResultResponse), FRCExtraResult, FrcExtraResultLen},
		{"Enumerate", wrap(ExplorationEnumerateResponse), ExplorationEnumerate, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.from(responseFrame(tt.t, RCodeOK, tt.min)))

			err := tt.from(responseFrame(tt.t, RCodeOK, tt.min-1))
			var short *FrameTooShortError
			require.ErrorAs(t, err, &short)
			assert.Equal(t, ResponseHeaderLen+tt.min-1, short.Got)
			assert.Equal(t, ResponseHeaderLen+tt.min, short.Want)
		})
	}
}

func wrap[T result](c ResponseCodec[T]) func([]byte) error {
	return func(frame []byte) error {
		_, err := c.FromDPA(frame)
		return err
	}
}

func TestResponse_Mismatch(t *testing.T) {
	t.Run("外设不符", func(t *testing.T) {
		_, err := OSReadResponse.FromDPA(responseFrame(NodeRead, RCodeOK, 20))
		assert.ErrorIs(t, err, ErrMessageMismatch)
	})
	t.Run("请求命令码", func(t *testing.T) {
		frame := responseFrame(OSRead, RCodeOK, 20)
		frame[OffsetPCMD] = byte(CmdOSRead)
		_, err := OSReadResponse.FromDPA(frame)
		assert.ErrorIs(t, err, ErrMessageMismatch)
	})
	t.Run("JSON mType 不符", func(t *testing.T) {
		_, err := OSReadResponse.FromJSON([]byte(`{"mType":"iqrfEmbedOs_Reset","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":0,"dpaVal":0}}}`))
		assert.ErrorIs(t, err, ErrMessageMismatch)
	})
	t.Run("JSON pcmd 不符", func(t *testing.T) {
		_, err := OSResetResponse.FromJSON([]byte(`{"mType":"iqrfEmbedOs_Reset","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"pnum":2,"pcmd":130,"rCode":0,"dpaVal":0}}}`))
		assert.ErrorIs(t, err, ErrMessageMismatch)
	})
}

func TestResponse_RoundTrip(t *testing.T) {
	reg := DefaultRegistry()
	for _, e := range reg.Entries() {
		if e.Type == GenericRaw {
			continue
		}
		t.Run(e.Type.Name, func(t *testing.T) {
			frame := responseFrame(e.Type, RCodeOK, ResponsePDataMaxLen)
			rsp, err := reg.ResponseFromDPA(frame)
			require.NoError(t, err)
			assert.Equal(t, e.Type, rsp.MessageType())
			assert.Equal(t, frame, rsp.ToDPA())

			rsp = AttachMsgID(rsp, "rt-1")
			out, err := rsp.ToJSON()
			require.NoError(t, err)

			back, err := reg.ResponseFromJSON(out)
			require.NoError(t, err)
			assert.Equal(t, "rt-1", back.MsgID())
			assert.Equal(t, rsp.Header(), back.Header())
			assert.Equal(t, frame, back.ToDPA())

			again, err := back.ToJSON()
			require.NoError(t, err)
			assert.JSONEq(t, string(out), string(again))
		})
	}
}

func TestResponse_FromJSONWithoutRaw(t *testing.T) {
	body := `{"mType":"iqrfEmbedCoordinator_SetHops","data":{"msgId":"h","rsp":{
		"nAdr":0,"hwpId":65535,"rCode":0,"dpaVal":77,
		"result":{"prevRequestHops":255,"prevResponseHops":1}}}}`
	rsp, err := CoordinatorSetHopsResponse.FromJSON([]byte(body))
	require.NoError(t, err)

	res, ok := rsp.Outcome().Get()
	require.True(t, ok)
	assert.Equal(t, SetHopsResult{RequestHops: 255, ResponseHops: 1}, res)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x89, 0xFF, 0xFF, 0x00, 77, 0xFF, 0x01}, rsp.ToDPA())
}

func TestResponse_FromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"缺少rsp", `{"mType":"iqrfEmbedOs_Read","data":{"msgId":"x"}}`, ErrMalformedJSON},
		{"缺少rCode", `{"mType":"iqrfEmbedOs_Read","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"dpaVal":0}}}`, ErrMalformedJSON},
		{"缺少result", `{"mType":"iqrfEmbedOs_Read","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":0,"dpaVal":0}}}`, ErrMalformedJSON},
		{"rCode越界", `{"mType":"iqrfEmbedOs_Read","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":256,"dpaVal":0}}}`, ErrValidation},
		{"raw非法", `{"mType":"iqrfEmbedOs_Reset","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":0,"dpaVal":0},"raw":[{"response":"zz.01"}]}}`, ErrMalformedJSON},
		{"pnum越界", `{"mType":"iqrfEmbedCoordinator_SetMID","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":0,"pnum":256,"pcmd":147,"rCode":0,"dpaVal":0}}}`, ErrValidation},
		{"pcmd越界", `{"mType":"iqrfEmbedCoordinator_SetMID","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":0,"pnum":0,"pcmd":403,"rCode":0,"dpaVal":0}}}`, ErrValidation},
		{"result为空对象", setHopsJSON(`{}`, ""), ErrMalformedJSON},
		{"result缺少字段", setHopsJSON(`{"prevRequestHops":1}`, ""), ErrMalformedJSON},
		{"result字段为null", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":null}`, ""), ErrMalformedJSON},
		{"result不是对象", setHopsJSON(`[1,2]`, ""), ErrMalformedJSON},
		{"result超出单字节", setHopsJSON(`{"prevRequestHops":300,"prevResponseHops":1}`, ""), ErrValidation},
		{"result为负数", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":-1}`, ""), ErrValidation},
		{"温度越界", `{"mType":"iqrfEmbedThermometer_Read","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":0,"dpaVal":0,"result":{"temperature":200,"value12b":0}}}}`, ErrValidation},
		{"节点地址越界", `{"mType":"iqrfEmbedCoordinator_BondedDevices","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":0,"rCode":0,"dpaVal":0,"result":{"bondedDevices":[1,256]}}}}`, ErrValidation},
		{"备份块长度不符", `{"mType":"iqrfEmbedCoordinator_Backup","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":0,"rCode":0,"dpaVal":0,"result":{"networkData":[1,2,3]}}}}`, ErrValidation},
		{"raw载荷与result不符", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "00.00.00.89.ff.ff.00.00.09.09"), ErrMalformedJSON},
		{"raw外设不符", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "05.00.01.80.ff.ff.00.00.09.09"), ErrMessageMismatch},
		{"raw地址不符", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "01.00.00.89.ff.ff.00.00.01.02"), ErrMalformedJSON},
		{"raw dpaVal不符", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "00.00.00.89.ff.ff.00.07.01.02"), ErrMalformedJSON},
		{"raw rCode不符", `{"mType":"iqrfEmbedCoordinator_SetHops","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":65535,"rCode":1,"dpaVal":0},"raw":[{"response":"00.00.00.89.ff.ff.00.00.01.02"}]}}`, ErrMalformedJSON},
		{"raw载荷过短", setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "00.00.00.89.ff.ff.00.00.01"), ErrFrameTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultRegistry().ResponseFromJSON([]byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("错误指明缺失键路径", func(t *testing.T) {
		_, err := CoordinatorSetHopsResponse.FromJSON([]byte(setHopsJSON(`{"prevRequestHops":1}`, "")))
		var merr *MalformedJSONError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "data.rsp.result.prevResponseHops", merr.Key)
	})

	t.Run("越界字段不被截断", func(t *testing.T) {
		_, err := CoordinatorSetHopsResponse.FromJSON([]byte(setHopsJSON(`{"prevRequestHops":300,"prevResponseHops":-1}`, "")))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "prevRequestHops", verr.Field)
	})

	t.Run("raw与result一致时载荷取自raw", func(t *testing.T) {
		rsp, err := CoordinatorSetHopsResponse.FromJSON([]byte(setHopsJSON(`{"prevRequestHops":1,"prevResponseHops":2}`, "00.00.00.89.ff.ff.00.00.01.02.aa")))
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0xAA}, rsp.PData())
		res, ok := rsp.Outcome().Get()
		require.True(t, ok)
		assert.Equal(t, SetHopsResult{RequestHops: 1, ResponseHops: 2}, res)
	})

	t.Run("失败状态不要求result", func(t *testing.T) {
		rsp, err := OSReadResponse.FromJSON([]byte(`{"mType":"iqrfEmbedOs_Read","data":{"msgId":"x","rsp":{"nAdr":1,"hwpId":0,"rCode":1,"dpaVal":0}}}`))
		require.NoError(t, err)
		assert.False(t, rsp.Outcome().OK())
	})
}

func TestResponse_DecodedFields(t *testing.T) {
	t.Run("NodeRead", func(t *testing.T) {
		frame := append(responseFrame(NodeRead, RCodeOK, 0),
			0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x34, 0x12, 0x78, 0x56, 0x0C)
		rsp, err := NodeReadResponse.FromDPA(frame)
		require.NoError(t, err)
		res, ok := rsp.Outcome().Get()
		require.True(t, ok)
		assert.Equal(t, 0x05, res.NtwADDR)
		assert.Equal(t, 0x1234, res.NtwUserAddress)
		assert.Equal(t, 0x5678, res.NtwID)
		assert.Equal(t, 0x0C, res.Flags)
	})

	t.Run("OSRead", func(t *testing.T) {
		frame := append(responseFrame(OSRead, RCodeOK, 0),
			0x78, 0x56, 0x34, 0x12, 0x43, 0xB4, 0x08, 0x0D, 0x30, 0x2A, 0x01, 0x31)
		rsp, err := OSReadResponse.FromDPA(frame)
		require.NoError(t, err)
		res, ok := rsp.Outcome().Get()
		require.True(t, ok)
		assert.Equal(t, uint32(0x12345678), res.MID)
		assert.Equal(t, 0x0D08, res.OSBuild)
		assert.Nil(t, res.IBK, "短帧不含 IBK")
	})

	t.Run("BondedDevices", func(t *testing.T) {
		pdata := make([]byte, BitmapLen)
		pdata[0] = 0x06
		pdata[1] = 0x80
		frame := append(responseFrame(CoordinatorBondedDevices, RCodeOK, 0), pdata...)
		rsp, err := CoordinatorBondedDevicesResponse.FromDPA(frame)
		require.NoError(t, err)
		res, ok := rsp.Outcome().Get()
		require.True(t, ok)
		assert.Equal(t, []int{1, 2, 15}, res.BondedDevices)
	})

	t.Run("ReadCfg", func(t *testing.T) {
		cfg := make([]byte, TrConfigurationLen)
		cfg[cfgRFChannelA] = 52
		frame := append(responseFrame(OSReadCfg, RCodeOK, 0), ConfigChecksum(cfg))
		frame = append(frame, cfg...)
		frame = append(frame, 0xC3)
		rsp, err := OSReadCfgResponse.FromDPA(frame)
		require.NoError(t, err)
		res, ok := rsp.Outcome().Get()
		require.True(t, ok)
		assert.True(t, res.ChecksumValid())
		tc, err := res.TrConfiguration()
		require.NoError(t, err)
		assert.Equal(t, 52, tc.RFChannelA)
		assert.Equal(t, 0xC3, res.RFPGM)
	})
}

func TestRawResponse(t *testing.T) {
	frame := []byte{0x01, 0x00, 0x06, 0x83, 0xFF, 0xFF, 0x00, 0x22, 0xAA}
	rsp, err := RawResponseFromDPA(frame)
	require.NoError(t, err)
	v, ok := rsp.Result()
	require.True(t, ok)
	assert.Equal(t, Bytes{0xAA}, v)

	out, err := AttachMsgID(rsp, "raw-1").ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"rData":"01.00.06.83.ff.ff.00.22.aa"`)

	back, err := RawResponseFromJSON(out)
	require.NoError(t, err)
	assert.Equal(t, "raw-1", back.MsgID())
	assert.Equal(t, frame, back.ToDPA())
	assert.Equal(t, "", rsp.MsgID(), "AttachMsgID 不修改原响应")
}

// setHopsJSON 组装 SetHops 响应，raw 为空时不带 verbose 帧
func setHopsJSON(result, raw string) string {
	body := `{"mType":"iqrfEmbedCoordinator_SetHops","data":{"msgId":"x","rsp":{"nAdr":0,"hwpId":65535,"rCode":0,"dpaVal":0,"result":` + result + `}`
	if raw != "" {
		body += `,"raw":[{"response":"` + raw + `"}]`
	}
	return body + `}}`
}
