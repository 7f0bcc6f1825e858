// Command scel parses a filter, prints its normalized form, translates it
// to sql against a yaml schema, and evaluates it against json records.
//
//    scel -filter "age ge 18 and userName co 'li'" \
//        -schema tables.yaml -alias u -records users.json
//
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	u "github.com/araddon/gou"
	"github.com/valyala/fastjson"

	"github.com/fenggch/framework/expr"
	"github.com/fenggch/framework/rel"
	"github.com/fenggch/framework/schema"
	"github.com/fenggch/framework/vm"
)

var (
	filterText  string
	schemaFile  string
	aliasName   string
	recordsFile string
	logging     = "info"
)

func main() {
	flag.StringVar(&logging, "logging", "info", "logging [ debug,info ]")
	flag.StringVar(&filterText, "filter", "", "filter expression [ age ge 18 and name co 'bo' ]")
	flag.StringVar(&schemaFile, "schema", "", "yaml table definitions, translate the filter to sql when given")
	flag.StringVar(&aliasName, "alias", "", "default alias for unqualified names, defaults to the first table")
	flag.StringVar(&recordsFile, "records", "", "json records to evaluate, an array or one object per line [ - for stdin ]")
	flag.Parse()

	u.SetupLogging(logging)
	u.SetColorOutput()

	if filterText == "" {
		flag.Usage()
		os.Exit(2)
	}

	ex, err := expr.Parse(filterText)
	if err != nil {
		u.Errorf("invalid filter: %v", err)
		os.Exit(1)
	}
	fmt.Printf("filter: %s\n", ex)

	if schemaFile != "" {
		if err := translate(ex); err != nil {
			u.Errorf("could not translate: %v", err)
			os.Exit(1)
		}
	}

	if recordsFile != "" {
		if err := evaluate(ex); err != nil {
			u.Errorf("could not evaluate: %v", err)
			os.Exit(1)
		}
	}
}

func translate(ex *expr.Expression) error {
	tables, err := schema.LoadTablesFile(schemaFile)
	if err != nil {
		return err
	}
	alias := aliasName
	if alias == "" && len(tables) > 0 {
		alias = tables[0].Alias
	}
	tr := rel.NewTranslator(alias, schema.NewResolvers(tables...))
	sql, args, err := tr.TranslateExpression(ex)
	if err != nil {
		return err
	}
	fmt.Printf("sql:    %s\n", sql)
	fmt.Printf("args:   %v\n", args)
	return nil
}

func evaluate(ex *expr.Expression) error {
	var data []byte
	var err error
	if recordsFile == "-" {
		data, err = ioutil.ReadAll(os.Stdin)
	} else {
		data, err = ioutil.ReadFile(recordsFile)
	}
	if err != nil {
		return err
	}

	total, matched := 0, 0
	err = eachRecord(data, func(raw string, rec map[string]interface{}) {
		total++
		if vm.Test(ex, rec) {
			matched++
			fmt.Println(raw)
		} else {
			u.Debugf("filtered out %s", raw)
		}
	})
	u.Infof("matched %d of %d records", matched, total)
	return err
}

// eachRecord calls fn with the source text and native form of every object,
// data is either a json array or newline delimited objects.
func eachRecord(data []byte, fn func(string, map[string]interface{})) error {
	var p fastjson.Parser
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		v, err := p.ParseBytes(trimmed)
		if err != nil {
			return err
		}
		arr, _ := v.Array()
		for i, item := range arr {
			rec, ok := nativeValue(item).(map[string]interface{})
			if !ok {
				return fmt.Errorf("record %d is not an object", i)
			}
			fn(item.String(), rec)
		}
		return nil
	}
	for i, line := range bytes.Split(trimmed, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		v, err := p.ParseBytes(line)
		if err != nil {
			return fmt.Errorf("line %d: %v", i+1, err)
		}
		rec, ok := nativeValue(v).(map[string]interface{})
		if !ok {
			return fmt.Errorf("line %d is not an object", i+1)
		}
		fn(string(line), rec)
	}
	return nil
}

// nativeValue converts a parsed json value into go values, integers stay int64.
func nativeValue(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]interface{}, o.Len())
		o.Visit(func(key []byte, item *fastjson.Value) {
			m[string(key)] = nativeValue(item)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		vals := make([]interface{}, len(arr))
		for i, item := range arr {
			vals[i] = nativeValue(item)
		}
		return vals
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if iv, err := v.Int64(); err == nil {
			return iv
		}
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
