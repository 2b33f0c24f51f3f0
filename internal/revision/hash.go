package revision

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/studiowebux/reqflow/internal/types"
)

// sampleWindow is the number of bytes read at each sampling point
const sampleWindow = 8

// hasher writes length-prefixed fields into an xxhash digest so that
// adjacent fields can never run together
type hasher struct {
	d               *xxhash.Digest
	sampleThreshold int
	sampleCount     int
	buf             [8]byte
}

func (h *hasher) int(n int) {
	binary.LittleEndian.PutUint64(h.buf[:], uint64(n))
	h.d.Write(h.buf[:])
}

func (h *hasher) str(s string) {
	h.int(len(s))
	h.d.WriteString(s)
}

func (h *hasher) flag(b bool) {
	if b {
		h.d.Write([]byte{1})
	} else {
		h.d.Write([]byte{0})
	}
}

// text hashes s in full below the sample threshold. Above it, only the length,
// sampleCount evenly strided windows and the tail are hashed.
func (h *hasher) text(s string) {
	if len(s) <= h.sampleThreshold || h.sampleCount <= 0 {
		h.str(s)
		return
	}
	h.int(len(s))
	stride := len(s) / h.sampleCount
	if stride < 1 {
		stride = 1
	}
	for off := 0; off < len(s); off += stride {
		end := off + sampleWindow
		if end > len(s) {
			end = len(s)
		}
		h.d.WriteString(s[off:end])
	}
	tail := len(s) - sampleWindow
	if tail < 0 {
		tail = 0
	}
	h.d.WriteString(s[tail:])
}

func (h *hasher) rows(rows []types.Row) {
	h.int(len(rows))
	for _, r := range rows {
		h.str(r.Key)
		h.str(r.Value)
		h.flag(r.IsEnabled())
	}
}

// Hash fingerprints every editable field of req. Row order is significant;
// auth params are hashed in key order.
func Hash(req *types.HttpRequest, sampleThreshold, sampleCount int) uint64 {
	h := &hasher{d: xxhash.New(), sampleThreshold: sampleThreshold, sampleCount: sampleCount}
	if req == nil {
		return h.d.Sum64()
	}

	h.str(req.Name)
	h.str(req.Method)
	h.str(req.URL)
	h.str(req.BodyMode)
	h.text(req.Body)

	h.rows(req.Headers)
	h.rows(req.QueryParams)

	h.int(len(req.FormBody))
	for _, f := range req.FormBody {
		h.str(f.Key)
		h.str(f.Value)
		h.str(f.Type)
		h.str(f.FilePath)
		h.str(f.FileName)
		h.text(f.FileInline)
		h.flag(f.IsEnabled())
	}

	h.flag(req.Binary != nil)
	if req.Binary != nil {
		h.str(req.Binary.FilePath)
		h.str(req.Binary.FileName)
		h.text(req.Binary.FileInline)
	}

	h.str(req.AuthType)
	keys := req.SortedAuthKeys()
	h.int(len(keys))
	for _, k := range keys {
		h.str(k)
		h.str(req.AuthParams[k])
	}

	h.int(len(req.ExtractRules))
	for _, r := range req.ExtractRules {
		h.str(r.ID)
		h.str(r.SourcePath)
		h.str(r.TargetVariable)
	}

	h.str(strconv.Itoa(req.TimeoutSeconds))
	h.flag(req.VerifySSL)

	return h.d.Sum64()
}

// Size approximates the memory held by one snapshot of req
func Size(req *types.HttpRequest) int {
	if req == nil {
		return 0
	}
	n := len(req.Name) + len(req.Method) + len(req.URL) + len(req.Body)
	for _, r := range req.Headers {
		n += len(r.Key) + len(r.Value)
	}
	for _, r := range req.QueryParams {
		n += len(r.Key) + len(r.Value)
	}
	for _, f := range req.FormBody {
		n += len(f.Key) + len(f.Value) + len(f.FilePath) + len(f.FileInline)
	}
	if req.Binary != nil {
		n += len(req.Binary.FilePath) + len(req.Binary.FileInline)
	}
	for k, v := range req.AuthParams {
		n += len(k) + len(v)
	}
	return n
}
