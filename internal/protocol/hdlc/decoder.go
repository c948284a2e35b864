package hdlc

// StreamDecoder 按 Flag 切分字节流，处理半包/粘包
type StreamDecoder struct {
	buf     []byte
	inFrame bool
	dropped int
}

func NewStreamDecoder() *StreamDecoder { return &StreamDecoder{} }

// Feed 追加字节并返回已完整的载荷；CRC 错误或转义错误的帧被丢弃并计数，
// 丢帧时返回最后一个错误，已解出的帧照常返回
func (d *StreamDecoder) Feed(p []byte) ([][]byte, error) {
	var (
		out     [][]byte
		lastErr error
	)
	for _, b := range p {
		if b != Flag {
			if !d.inFrame {
				// 首个 Flag 之前的噪声
				continue
			}
			if len(d.buf) > 2*(MaxPayloadLen+1) {
				d.buf = d.buf[:0]
				d.inFrame = false
				d.dropped++
				lastErr = ErrTooLarge
				continue
			}
			d.buf = append(d.buf, b)
			continue
		}
		// 连续 Flag 视为帧间填充
		if !d.inFrame || len(d.buf) == 0 {
			d.inFrame = true
			continue
		}
		payload, err := Decode(d.buf)
		d.buf = d.buf[:0]
		if err != nil {
			d.dropped++
			lastErr = err
			continue
		}
		out = append(out, payload)
	}
	return out, lastErr
}

// Dropped 累计丢弃帧数
func (d *StreamDecoder) Dropped() int { return d.dropped }

// Reset 清空未完成的缓冲
func (d *StreamDecoder) Reset() {
	d.buf = d.buf[:0]
	d.inFrame = false
}
