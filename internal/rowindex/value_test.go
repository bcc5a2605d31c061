package rowindex

import (
	"encoding/json"
	"testing"

	"github.com/maruel/taxref/internal/name"
)

func TestColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnType
		ok   bool
	}{
		{"text", TypeText, true},
		{"", TypeText, true},
		{" Name ", TypeName, true},
		{"primary_key", TypePrimaryKey, true},
		{"pk", TypePrimaryKey, true},
		{"integer", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumnType(tt.in)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("ParseColumnType(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(Column{Name: "taxonID", Type: TypePrimaryKey})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := string(b), `{"name":"taxonID","type":"primary_key"}`; got != want {
			t.Errorf("Marshal() = %s, want %s", got, want)
		}
		var c Column
		if err := json.Unmarshal(b, &c); err != nil {
			t.Fatal(err)
		}
		if c.Type != TypePrimaryKey {
			t.Errorf("Unmarshal() type = %v", c.Type)
		}
		if _, err := json.Marshal(ColumnType(7)); err == nil {
			t.Error("Marshal(ColumnType(7)) succeeded")
		}
	})
}

func TestValue(t *testing.T) {
	in := name.NewInterner()
	tests := []struct {
		name  string
		v     Value
		kind  ColumnType
		str   string
		blank bool
	}{
		{"Zero", Value{}, TypeText, "", true},
		{"Text", Text("x"), TypeText, "x", false},
		{"Name", NameValue(in.Of("Panthera leo")), TypeName, "Panthera leo", false},
		{"NilName", NameValue(nil), TypeText, "", true},
		{"PrimaryKey", PrimaryKey("K1"), TypePrimaryKey, "K1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.kind || tt.v.String() != tt.str || tt.v.IsBlank() != tt.blank {
				t.Errorf("%#v: kind %v, string %q, blank %v", tt.v, tt.v.Kind(), tt.v.String(), tt.v.IsBlank())
			}
		})
	}
	t.Run("Equal", func(t *testing.T) {
		if !NameValue(in.Of("panthera LEO")).Equal(NameValue(in.Of("Panthera leo"))) {
			t.Error("names differing by case are not equal")
		}
		if PrimaryKey("k").Equal(PrimaryKey("K")) {
			t.Error("keys differing by case are equal")
		}
		if Text("a").Equal(PrimaryKey("a")) {
			t.Error("different kinds are equal")
		}
	})
}
