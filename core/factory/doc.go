// Package factory instantiates pluggable modules, such as trip sources and
// metrics sinks, from configuration. A module is a type name plus a map of
// raw settings that the registered factory decodes with Decode.
//
//	var sources = factory.NewRegistry[Source]()
//	_ = sources.Register("csv", func(conf map[string]any) (Source, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return &CSVSource{Path: c.Path}, nil
//	})
//	src, err := sources.Create(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": "trips.csv"}})
package factory
