package commands

import (
	"fmt"
	"strconv"

	"github.com/brettbedarf/sandfs/vfs"
)

// Request is the JSON form of one command. Which fields are read depends on Type:
//
//	{"type":"action","action":"create","path":"/a/"}
//	{"type":"action","action":"set-content","path":"/a/b.txt","content":"hi"}
//	{"type":"action","action":"copy","path":"/a/b.txt","dest":"/c.txt"}
//	{"type":"list","path":"/a/","filter":"files"}
//	{"type":"glob","path":"/a/","pattern":"*.txt"}
//	{"type":"permission","action":"remove","path":"/a/","permission":"write"}
//	{"type":"limit","action":"set","path":"/a/","limit":1024}
//	{"type":"get","attribute":"size","path":"/a/"}
//	{"type":"check","check":"exists","path":"/a/"}
//	{"type":"configure-persistence","namespace":"proj","backend":"billy","dir":"/tmp/snaps"}
type Request struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`

	Path    string  `json:"path,omitempty"`
	Dest    string  `json:"dest,omitempty"`
	Content *string `json:"content,omitempty"`

	Filter  string `json:"filter,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Scope   string `json:"scope,omitempty"`

	Permission string `json:"permission,omitempty"`
	Limit      any    `json:"limit,omitempty"` // number or numeric text

	Attribute string `json:"attribute,omitempty"`
	Check     string `json:"check,omitempty"`

	Data   string `json:"data,omitempty"`   // base64, data URL or snapshot text
	Format string `json:"format,omitempty"` // base64 or dataurl
	Text   string `json:"text,omitempty"`

	Enabled *bool `json:"enabled,omitempty"`

	Namespace string `json:"namespace,omitempty"`
	Backend   string `json:"backend,omitempty"`
	Dir       string `json:"dir,omitempty"`
	Compress  bool   `json:"compress,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	UseSSL    *bool  `json:"use_ssl,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

// limit coerces the limit field the way user input is coerced everywhere.
func (r *Request) limit() (int64, error) {
	switch v := r.Limit.(type) {
	case float64:
		return vfs.ParseLimit(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case string:
		return vfs.ParseLimit(v), nil
	case nil:
		return 0, fmt.Errorf("limit is required")
	}
	return 0, fmt.Errorf("limit must be a number, got %T", r.Limit)
}

func (r *Request) content() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

func (r *Request) filter() vfs.Filter {
	f, ok := vfs.ParseFilter(r.Filter)
	if !ok {
		return vfs.Filter(r.Filter)
	}
	return f
}
