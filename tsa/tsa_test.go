// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package tsa

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/cms"
)

func tsaTestCert(t *testing.T) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "Test TSA"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, priv.Public(), priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert, priv
}

// newTestTSA builds an httptest server granting every request it receives,
// signed by cert/priv, and echoing the request's nonce. While *failNext is
// set it answers one request with 503 instead and clears the flag.
func newTestTSA(t *testing.T, cert *x509.Certificate, priv *rsa.PrivateKey, failNext *bool) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Post("/tsa", func(w http.ResponseWriter, r *http.Request) {
		if failNext != nil && *failNext {
			*failNext = false
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		tsReq, err := ParseRequest(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		info := TSTInfo{
			Policy:         oid.MustOid(1, 2, 3, 4).Oid(),
			MessageImprint: tsReq.MessageImprint,
			SerialNumber:   big.NewInt(42),
			GenTime:        time.Now(),
			Nonce:          tsReq.Nonce,
		}
		infoBytes, err := info.Marshal()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		signer, err := cms.NewSigner(cert, priv, cms.DigestSHA256, cms.SigSHA256WithRSA, oid.TSTInfo, &cms.Attributes{}, nil)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		signer.Update(infoBytes)
		signerInfo, err := signer.Finish()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		sd := &cms.SignedData{
			Version:          1,
			DigestAlgorithms: []cms.DigestAlgorithm{cms.DigestSHA256},
			ContentType:      oid.TSTInfo,
			EContent:         infoBytes,
			Certificates:     []*x509.Certificate{cert},
			SignerInfos:      []cms.SignerInfo{signerInfo},
		}
		ci, err := cms.SignedDataContentInfo(sd)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		tokenBytes, err := ci.Marshal()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		resp := &Response{
			Status:   PKIStatusInfo{Status: Granted},
			TokenRaw: tokenBytes,
		}
		respBytes, err := resp.Marshal()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeReply)
		w.WriteHeader(http.StatusOK)
		w.Write(respBytes)
	})
	return httptest.NewServer(router)
}

func TestClientQueryGranted(t *testing.T) {
	cert, priv := tsaTestCert(t)
	srv := newTestTSA(t, cert, priv, nil)
	defer srv.Close()

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req := NewRequest(cms.DigestSHA256, make([]byte, 32), WithNonce(big.NewInt(99)))

	ts, err := client.Query(context.Background(), srv.URL+"/tsa", req)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ts.Info.Nonce == nil || ts.Info.Nonce.Cmp(big.NewInt(99)) != 0 {
		t.Fatalf("response nonce = %v, want 99", ts.Info.Nonce)
	}
	if !ts.Info.Policy.Equal(oid.MustOid(1, 2, 3, 4).Oid()) {
		t.Fatalf("response policy mismatch")
	}
}

func TestClientQueryTransportFailure(t *testing.T) {
	client, err := NewClient(WithTimeout(2 * time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	req := NewRequest(cms.DigestSHA256, make([]byte, 32))
	_, err = client.Query(context.Background(), "http://127.0.0.1:1/unreachable", req)
	if err == nil {
		t.Fatalf("expected a transport failure")
	}
}

func TestSelectorRotatesOnFailure(t *testing.T) {
	cert, priv := tsaTestCert(t)
	failOnce := true
	srv := newTestTSA(t, cert, priv, &failOnce)
	defer srv.Close()

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sel, err := NewSelector(srv.URL+"/bogus", srv.URL+"/tsa")
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	req := NewRequest(cms.DigestSHA256, make([]byte, 32))
	if _, err := sel.Query(context.Background(), client, req); err == nil {
		t.Fatalf("expected the first (bogus) endpoint to fail")
	}

	ts, err := sel.Query(context.Background(), client, req)
	if err != nil {
		t.Fatalf("Query after rotation: %v", err)
	}
	if ts == nil {
		t.Fatalf("expected a granted Timestamp")
	}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	req := NewRequest(cms.DigestSHA256, make([]byte, 32), WithNonce(big.NewInt(123)), WithCertificate())
	encoded, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := ParseRequest(encoded)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if !decoded.CertReq {
		t.Fatalf("CertReq not preserved")
	}
	if decoded.Nonce == nil || decoded.Nonce.Cmp(big.NewInt(123)) != 0 {
		t.Fatalf("Nonce not preserved: %v", decoded.Nonce)
	}
	if decoded.MessageImprint.HashAlgorithm.Oid.String() != cms.DigestSHA256.Oid.String() {
		t.Fatalf("HashAlgorithm not preserved")
	}
}
