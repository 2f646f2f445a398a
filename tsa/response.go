// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package tsa

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/cms"
	"github.com/jarsign/jarsign/jarsignerr"
)

// PKIStatus is RFC 3161 §2.4.2's PKIStatus.
type PKIStatus int

const (
	Granted                PKIStatus = 0
	GrantedWithMods        PKIStatus = 1
	Rejection              PKIStatus = 2
	Waiting                PKIStatus = 3
	RevocationWarning      PKIStatus = 4
	RevocationNotification PKIStatus = 5
)

func (s PKIStatus) String() string {
	switch s {
	case Granted:
		return "granted"
	case GrantedWithMods:
		return "granted, with modifications"
	case Rejection:
		return "rejected"
	case Waiting:
		return "waiting"
	case RevocationWarning:
		return "revocation imminent"
	case RevocationNotification:
		return "revocation has occurred"
	default:
		return "unknown status " + strconv.Itoa(int(s))
	}
}

// FailureInfo is RFC 3161 §2.4.2's PKIFailureInfo, one bit position per
// reason a TSA can give for rejecting a request.
type FailureInfo int

const (
	BadAlgorithm        FailureInfo = 0
	BadRequest          FailureInfo = 2
	BadDataFormat       FailureInfo = 5
	TimeNotAvailable    FailureInfo = 14
	UnacceptedPolicy    FailureInfo = 15
	UnacceptedExtension FailureInfo = 16
	AddInfoNotAvailable FailureInfo = 17
	SystemFailure       FailureInfo = 25
)

func (f FailureInfo) String() string {
	switch f {
	case BadAlgorithm:
		return "unrecognized or unsupported algorithm identifier"
	case BadRequest:
		return "transaction not permitted or supported"
	case BadDataFormat:
		return "the data submitted has the wrong format"
	case TimeNotAvailable:
		return "the TSA's time source is not available"
	case UnacceptedPolicy:
		return "the requested TSA policy is not supported"
	case UnacceptedExtension:
		return "the requested extension is not supported"
	case AddInfoNotAvailable:
		return "the additional information requested is not available"
	case SystemFailure:
		return "the request cannot be handled due to system failure"
	default:
		return "unknown failure"
	}
}

// failureInfoFromBits reports the lowest set bit position in a PKIFailureInfo
// BIT STRING, or (0, false) if no bit is set.
func failureInfoFromBits(bits asn1.BitString) (FailureInfo, bool) {
	for i := 0; i < len(bits.Bytes)*8; i++ {
		byteIdx, bitIdx := i/8, uint(7-i%8)
		if bits.Bytes[byteIdx]&(1<<bitIdx) != 0 {
			return FailureInfo(i), true
		}
	}
	return 0, false
}

// PKIStatusInfo is RFC 3161 §2.4.2's PKIStatusInfo.
type PKIStatusInfo struct {
	Status       PKIStatus
	StatusString []string
	FailInfo     *FailureInfo
}

// Response is RFC 3161's TimeStampResp.
type Response struct {
	Status PKIStatusInfo
	// TokenRaw holds the raw DER of the embedded TimeStampToken (a CMS
	// ContentInfo wrapping a SignedData), nil when Status isn't granted.
	TokenRaw []byte
}

// Err returns a jarsignerr.Error of Kind TsaRejected if the response's
// status isn't Granted or GrantedWithMods, nil otherwise.
func (r *Response) Err() error {
	if r.Status.Status == Granted || r.Status.Status == GrantedWithMods {
		return nil
	}
	detail := r.Status.Status.String()
	if r.Status.FailInfo != nil {
		detail = fmt.Sprintf("%s: %s", detail, r.Status.FailInfo.String())
	}
	if len(r.Status.StatusString) > 0 {
		detail = fmt.Sprintf("%s (%v)", detail, r.Status.StatusString)
	}
	return jarsignerr.New(jarsignerr.TsaRejected, fmt.Errorf("%s", detail))
}

// Token parses TokenRaw as a CMS ContentInfo.
func (r *Response) Token() (cms.ContentInfo, error) {
	if r.TokenRaw == nil {
		return cms.ContentInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("response carries no TimeStampToken"))
	}
	ci, rest, err := cms.ParseContentInfo(r.TokenRaw)
	if err != nil {
		return cms.ContentInfo{}, err
	}
	if len(rest) != 0 {
		return cms.ContentInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("trailing data after TimeStampToken"))
	}
	return ci, nil
}

// Marshal renders r as a DER TimeStampResp.
func (r *Response) Marshal() ([]byte, error) {
	statusMembers := []*asn1.Value{asn1.NewIntegerInt64(int64(r.Status.Status))}
	if len(r.Status.StatusString) > 0 {
		strs := make([]*asn1.Value, len(r.Status.StatusString))
		for i, s := range r.Status.StatusString {
			v, err := asn1.NewString(asn1.StringUTF8, s)
			if err != nil {
				return nil, err
			}
			strs[i] = v
		}
		statusMembers = append(statusMembers, asn1.NewSequenceOf(func() *asn1.Value { return nil }, strs...))
	}
	if r.Status.FailInfo != nil {
		bs, err := failureInfoBits(*r.Status.FailInfo)
		if err != nil {
			return nil, err
		}
		statusMembers = append(statusMembers, bs)
	}

	members := []*asn1.Value{asn1.NewSequence(statusMembers...)}
	if r.TokenRaw != nil {
		members = append(members, asn1.NewVerbatimTLV(r.TokenRaw))
	}
	return asn1.Encode(asn1.NewSequence(members...))
}

// failureInfoBits renders f as the single-bit BIT STRING PKIFailureInfo uses.
func failureInfoBits(f FailureInfo) (*asn1.Value, error) {
	byteLen := int(f)/8 + 1
	bits := make([]byte, byteLen)
	bits[int(f)/8] = 0x80 >> uint(int(f)%8)
	unused := byteLen*8 - (int(f) + 1)
	return asn1.NewBitString(bits, unused)
}

// ParseResponse decodes a DER or BER TimeStampResp.
func ParseResponse(data []byte) (*Response, error) {
	_, constructed, tag, content, n, err := asn1.ReadTLV(data, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if tag != asn1.TagSequence || !constructed {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TimeStampResp is not a SEQUENCE"))
	}
	if n != len(data) {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("trailing data after TimeStampResp"))
	}

	members, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if len(members) == 0 {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TimeStampResp needs at least a status"))
	}

	status, err := parsePKIStatusInfo(members[0])
	if err != nil {
		return nil, err
	}
	resp := &Response{Status: status}
	if len(members) > 1 {
		resp.TokenRaw = members[1]
	}
	return resp, nil
}

func parsePKIStatusInfo(raw []byte) (PKIStatusInfo, error) {
	_, constructed, tag, content, _, err := asn1.ReadTLV(raw, true)
	if err != nil {
		return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if tag != asn1.TagSequence || !constructed {
		return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("PKIStatusInfo is not a SEQUENCE"))
	}
	members, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if len(members) == 0 {
		return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("PKIStatusInfo needs at least a status"))
	}

	statusVal, _, err := asn1.DecodeBER(members[0])
	if err != nil {
		return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	info := PKIStatusInfo{Status: PKIStatus(statusVal.Int().Int64())}

	for _, raw := range members[1:] {
		class, constructed, tag, fieldContent, _, err := asn1.ReadTLV(raw, true)
		if err != nil {
			return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		switch {
		case class == asn1.ClassUniversal && tag == asn1.TagSequence && constructed:
			strs, err := asn1.SplitTLVs(fieldContent, true)
			if err != nil {
				return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
			}
			for _, s := range strs {
				val, _, err := asn1.DecodeBER(s)
				if err != nil {
					return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
				}
				info.StatusString = append(info.StatusString, val.Str().Text)
			}
		case class == asn1.ClassUniversal && tag == asn1.TagBitString:
			val, _, err := asn1.DecodeBER(raw)
			if err != nil {
				return PKIStatusInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
			}
			if fi, ok := failureInfoFromBits(val.BitString()); ok {
				info.FailInfo = &fi
			}
		}
	}
	return info, nil
}

// Accuracy is TSTInfo's optional Accuracy field, the TSA's claimed bound on
// the difference between the genTime it reports and the true time.
type Accuracy struct {
	Seconds      int64
	Milliseconds int64
	Microseconds int64
}

// Duration converts a to a time.Duration.
func (a Accuracy) Duration() time.Duration {
	return time.Duration(a.Seconds)*time.Second +
		time.Duration(a.Milliseconds)*time.Millisecond +
		time.Duration(a.Microseconds)*time.Microsecond
}

// TSTInfo is RFC 3161's TSTInfo, the content signed inside a
// TimeStampToken's SignedData.
type TSTInfo struct {
	Policy         asn1.Oid
	MessageImprint MessageImprint
	SerialNumber   *big.Int
	GenTime        time.Time
	Accuracy       Accuracy
	Ordering       bool
	Nonce          *big.Int // nil if the request carried none
}

// Marshal renders t as a DER TSTInfo.
func (t TSTInfo) Marshal() ([]byte, error) {
	members := []*asn1.Value{
		asn1.NewIntegerInt64(1),
		asn1.MustOid(t.Policy...),
		t.MessageImprint.marshalValue(),
		asn1.NewInteger(t.SerialNumber),
		asn1.NewTime(asn1.TimeGeneralized, t.GenTime),
	}
	if t.Accuracy != (Accuracy{}) {
		members = append(members, accuracyValue(t.Accuracy))
	}
	if t.Ordering {
		members = append(members, asn1.NewBoolean(true))
	}
	if t.Nonce != nil {
		members = append(members, asn1.NewInteger(t.Nonce))
	}
	return asn1.Encode(asn1.NewSequence(members...))
}

func accuracyValue(a Accuracy) *asn1.Value {
	var members []*asn1.Value
	if a.Seconds != 0 {
		members = append(members, asn1.NewIntegerInt64(a.Seconds))
	}
	if a.Milliseconds != 0 {
		members = append(members, asn1.NewTagged(asn1.ClassContext, 0, false, asn1.NewIntegerInt64(a.Milliseconds)))
	}
	if a.Microseconds != 0 {
		members = append(members, asn1.NewTagged(asn1.ClassContext, 1, false, asn1.NewIntegerInt64(a.Microseconds)))
	}
	return asn1.NewSequence(members...)
}

// ParseTSTInfo decodes a DER or BER TSTInfo, the payload of a TimeStampToken
// SignedData's eContent.
func ParseTSTInfo(data []byte) (*TSTInfo, error) {
	_, constructed, tag, content, n, err := asn1.ReadTLV(data, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if tag != asn1.TagSequence || !constructed {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TSTInfo is not a SEQUENCE"))
	}
	if n != len(data) {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("trailing data after TSTInfo"))
	}

	members, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if len(members) < 5 {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TSTInfo needs at least version, policy, messageImprint, serialNumber, genTime"))
	}

	policyVal, _, err := asn1.DecodeBER(members[1])
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	mi, err := parseMessageImprint(members[2])
	if err != nil {
		return nil, err
	}
	serialVal, _, err := asn1.DecodeBER(members[3])
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	genTimeVal, _, err := asn1.DecodeBER(members[4])
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}

	info := &TSTInfo{
		Policy:         policyVal.Oid(),
		MessageImprint: mi,
		SerialNumber:   serialVal.Int(),
		GenTime:        genTimeVal.Time().Instant,
	}

	for _, raw := range members[5:] {
		class, constructed, tag, fieldContent, _, err := asn1.ReadTLV(raw, true)
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		switch {
		case class == asn1.ClassUniversal && tag == asn1.TagSequence && constructed:
			info.Accuracy, err = parseAccuracy(fieldContent)
			if err != nil {
				return nil, err
			}
		case class == asn1.ClassUniversal && tag == asn1.TagBoolean:
			info.Ordering = len(fieldContent) > 0 && fieldContent[0] != 0
		case class == asn1.ClassUniversal && tag == asn1.TagInteger:
			info.Nonce = new(big.Int).SetBytes(fieldContent)
		}
	}
	return info, nil
}

func parseAccuracy(content []byte) (Accuracy, error) {
	members, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return Accuracy{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	var a Accuracy
	for _, raw := range members {
		class, _, tag, fieldContent, _, err := asn1.ReadTLV(raw, true)
		if err != nil {
			return Accuracy{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		n := new(big.Int).SetBytes(fieldContent).Int64()
		switch {
		case class == asn1.ClassUniversal && tag == asn1.TagInteger:
			a.Seconds = n
		case class == asn1.ClassContext && tag == 0:
			a.Milliseconds = n
		case class == asn1.ClassContext && tag == 1:
			a.Microseconds = n
		}
	}
	return a, nil
}
