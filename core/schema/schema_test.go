package schema

import (
	"testing"

	"github.com/calltree/calltree/ports"
)

func TestParseVerb(t *testing.T) {
	tests := []struct {
		input string
		want  Verb
		ok    bool
	}{
		{"get", Get, true},
		{"GET", Get, true},
		{"Post", Post, true},
		{"put", Put, true},
		{"PATCH", Patch, true},
		{"delete", Delete, true},
		{"head", "", false},
		{"options", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseVerb(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseVerb(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestVerbMethod(t *testing.T) {
	if Get.Method() != "GET" {
		t.Errorf("Get.Method() = %q, want GET", Get.Method())
	}
	if Delete.Method() != "DELETE" {
		t.Errorf("Delete.Method() = %q, want DELETE", Delete.Method())
	}
}

func TestPayloadStates(t *testing.T) {
	accept := ports.ValidatorFunc(func(v any) ports.ParseResult {
		return ports.ParseResult{OK: true, Data: v}
	})

	var zero Payload
	if !zero.IsNone() {
		t.Error("zero Payload should be None")
	}
	if _, ok := zero.Validator(); ok {
		t.Error("None payload should carry no validator")
	}

	if Raw.IsNone() || !Raw.IsRaw() {
		t.Error("Raw payload misclassified")
	}
	if _, ok := Raw.Validator(); ok {
		t.Error("Raw payload should carry no validator")
	}

	p := Validated(accept)
	if p.IsNone() || p.IsRaw() {
		t.Error("Validated payload misclassified")
	}
	v, ok := p.Validator()
	if !ok || v == nil {
		t.Error("Validated payload should carry its validator")
	}
}

func TestMetadataModeDefault(t *testing.T) {
	var ep Endpoint
	if ep.Metadata != MetadataRequired {
		t.Errorf("zero Endpoint metadata mode = %d, want MetadataRequired", ep.Metadata)
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{"root", nil, ""},
		{"single", []string{"users"}, "/users"},
		{"nested", []string{"admin", "users"}, "/admin/users"},
		{"camel keys", []string{"userProfile", "avatarImage"}, "/user-profile/avatar-image"},
		{"mixed casing", []string{"Admin", "systemInfo"}, "/admin/system-info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Path(tt.segments); got != tt.want {
				t.Errorf("Path(%v) = %q, want %q", tt.segments, got, tt.want)
			}
		})
	}
}

func testSchema() Schema {
	return Schema{
		"users": Route{
			Get:  Endpoint{},
			Post: Endpoint{Input: Raw, Output: Raw},
		},
		"admin": Schema{
			"systemInfo": Route{
				Get: Endpoint{Output: Raw, CacheControl: "max-age=60"},
			},
			"audit": Route{
				Delete: Endpoint{},
			},
		},
	}
}

func TestWalkDeterministic(t *testing.T) {
	type visit struct {
		path string
		verb Verb
	}

	collect := func() []visit {
		var visits []visit
		err := Walk(testSchema(), func(segments []string, verb Verb, ep Endpoint) error {
			visits = append(visits, visit{Path(segments), verb})
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		return visits
	}

	want := []visit{
		{"/admin/audit", Delete},
		{"/admin/system-info", Get},
		{"/users", Get},
		{"/users", Post},
	}

	for run := 0; run < 5; run++ {
		got := collect()
		if len(got) != len(want) {
			t.Fatalf("walk visited %d endpoints, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("run %d visit[%d] = %+v, want %+v", run, i, got[i], want[i])
			}
		}
	}
}

func TestWalkNilNode(t *testing.T) {
	s := Schema{"broken": nil}
	err := Walk(s, func([]string, Verb, Endpoint) error { return nil })
	if err == nil {
		t.Fatal("Walk should reject nil nodes")
	}
}

func TestEndpoints(t *testing.T) {
	infos := Endpoints(testSchema())
	if len(infos) != 4 {
		t.Fatalf("Endpoints() returned %d entries, want 4", len(infos))
	}

	first := infos[0]
	if first.Path != "/admin/audit" || first.Verb != Delete {
		t.Errorf("first endpoint = %+v, want /admin/audit delete", first)
	}
	if first.HasInput || first.HasOutput {
		t.Errorf("audit delete should declare no payloads: %+v", first)
	}

	info := infos[1]
	if info.Path != "/admin/system-info" || !info.HasOutput || info.CacheControl != "max-age=60" {
		t.Errorf("system-info endpoint = %+v", info)
	}
}
