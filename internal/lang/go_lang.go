package lang

func init() {
	Register(&Spec{
		Language:           Go,
		FileExtensions:     []string{".go"},
		FunctionNodeTypes:  []string{"function_declaration", "method_declaration"},
		ContainerNodeTypes: []string{"type_spec"},
		ContainerKind: map[string]Kind{
			"type_spec": KindType, // refined to struct/interface by inspecting the underlying type node
		},
		ConstantNodeTypes: []string{"const_declaration", "var_declaration"},
		ModuleNodeTypes:   []string{"source_file"},
		VariableNodeTypes: []string{"var_declaration", "const_declaration", "short_var_declaration"},
	})
}
