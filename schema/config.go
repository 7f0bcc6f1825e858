package schema

import (
	"io/ioutil"
	"strings"

	u "github.com/araddon/gou"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the schema file layout
//
//	tables:
//	  - name: users
//	    alias: u
//	    fields:
//	      - name: userName
//	        column: user_name
//	        type: string
//	      - name: password
//	        type: string
//	        notFilterable: true
type Config struct {
	Tables []*Table `yaml:"tables"`
}

// Validate validates a Config and returns an error if it's invalid.
func (conf *Config) Validate() error {
	aliases := make(map[string]bool, len(conf.Tables))
	for i, tbl := range conf.Tables {
		if tbl == nil || tbl.Name == "" {
			return errors.Errorf("invalid table #%d: no name provided in config", i)
		}
		alias := strings.ToLower(tbl.Alias)
		if alias == "" {
			alias = strings.ToLower(tbl.Name)
		}
		if aliases[alias] {
			return errors.Errorf("duplicate table alias %q in config", alias)
		}
		aliases[alias] = true
		names := make(map[string]bool, len(tbl.Fields))
		for j, fld := range tbl.Fields {
			if fld == nil || fld.Name == "" {
				return errors.Errorf("invalid field #%d of table %s: no name provided", j, tbl.Name)
			}
			name := strings.ToLower(fld.Name)
			if names[name] {
				return errors.Errorf("duplicate field %q in table %s", fld.Name, tbl.Name)
			}
			names[name] = true
		}
	}
	return nil
}

// LoadTables parses table definitions from yaml
func LoadTables(data []byte) ([]*Table, error) {
	conf := &Config{}
	if err := yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, errors.Wrap(err, "could not parse schema")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	for _, tbl := range conf.Tables {
		tbl.init()
		u.Debugf("loaded table %s as %s with %d fields", tbl.Name, tbl.Alias, len(tbl.Fields))
	}
	return conf.Tables, nil
}

// LoadTablesFile reads table definitions from a yaml file
func LoadTablesFile(path string) ([]*Table, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tables, err := LoadTables(data)
	return tables, errors.Wrapf(err, "schema %s", path)
}
