package serializer

import (
	"context"
	"encoding/json"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/server-builder/pkg/header"
)

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		name          string
		uri           string
		wantNamespace string
		wantName      string
		wantErr       bool
	}{
		{name: "valid", uri: "cm://hw/catalogs", wantNamespace: "hw", wantName: "catalogs"},
		{name: "spaces", uri: "cm://hw / catalogs ", wantNamespace: "hw", wantName: "catalogs"},
		{name: "missing scheme", uri: "hw/catalogs", wantErr: true},
		{name: "wrong scheme", uri: "http://hw/catalogs", wantErr: true},
		{name: "missing name", uri: "cm://hw/", wantErr: true},
		{name: "missing namespace", uri: "cm:///catalogs", wantErr: true},
		{name: "missing separator", uri: "cm://hw", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, name, err := ParseConfigMapURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfigMapURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ns != tt.wantNamespace || name != tt.wantName {
				t.Errorf("got %s/%s, want %s/%s", ns, name, tt.wantNamespace, tt.wantName)
			}
		})
	}
}

type keyedDoc struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (d keyedDoc) DataKey() string { return d.Category }

type headedDoc struct {
	header.Header `yaml:",inline"`

	Name string `json:"name"`
}

func TestConfigMapWriterCreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	cs := fake.NewClientset()
	w := NewConfigMapWriter("hw", "catalogs", FormatJSON, WithConfigMapClient(cs))

	if err := w.Serialize(ctx, keyedDoc{Category: "ram", Count: 2}); err != nil {
		t.Fatalf("first Serialize: %v", err)
	}
	if err := w.Serialize(ctx, keyedDoc{Category: "cpu", Count: 1}); err != nil {
		t.Fatalf("second Serialize: %v", err)
	}

	cm, err := cs.CoreV1().ConfigMaps("hw").Get(ctx, "catalogs", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("get configmap: %v", err)
	}
	for _, key := range []string{"ram.json", "cpu.json", "updated"} {
		if _, ok := cm.Data[key]; !ok {
			t.Errorf("missing key %s in %v", key, cm.Data)
		}
	}

	var got keyedDoc
	if err := json.Unmarshal([]byte(cm.Data["ram.json"]), &got); err != nil {
		t.Fatalf("decode ram.json: %v", err)
	}
	if got.Count != 2 {
		t.Errorf("ram.json count = %d, want 2", got.Count)
	}
	if cm.Labels["app.kubernetes.io/name"] != "server-builder" {
		t.Errorf("labels = %v", cm.Labels)
	}
}

func TestConfigMapWriterKeyFromHeader(t *testing.T) {
	ctx := context.Background()
	existing := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "out", Namespace: "hw"}}
	cs := fake.NewClientset(existing)

	d := &headedDoc{Name: "x"}
	d.Init(header.KindLintReport, header.APIVersion, "")

	w := NewConfigMapWriter("hw", "out", FormatTable, WithConfigMapClient(cs))
	if err := w.Serialize(ctx, d); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	cm, err := cs.CoreV1().ConfigMaps("hw").Get(ctx, "out", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("get configmap: %v", err)
	}
	if _, ok := cm.Data["lintreport.json"]; !ok {
		t.Errorf("expected lintreport.json, got %v", cm.Data)
	}
	if cm.Labels["app.kubernetes.io/component"] != "lintreport" {
		t.Errorf("labels = %v", cm.Labels)
	}
}

func TestDataKeyDefault(t *testing.T) {
	if got := dataKey(map[string]int{"a": 1}); got != "document" {
		t.Errorf("dataKey = %q, want document", got)
	}
}
