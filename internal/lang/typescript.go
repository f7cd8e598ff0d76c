package lang

func init() {
	Register(&Spec{
		Language:       TypeScript,
		FileExtensions: []string{".ts"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"method_definition",
		},
		ContainerNodeTypes: []string{
			"class_declaration",
			"abstract_class_declaration",
			"enum_declaration",
			"interface_declaration",
			"type_alias_declaration",
		},
		ContainerKind: map[string]Kind{
			"class_declaration":          KindClass,
			"abstract_class_declaration": KindClass,
			"enum_declaration":           KindEnum,
			"interface_declaration":      KindInterface,
			"type_alias_declaration":     KindType,
		},
		ConstantNodeTypes: []string{"lexical_declaration"},
		ModuleNodeTypes:   []string{"program"},
		VariableNodeTypes: []string{"lexical_declaration", "variable_declaration"},
	})
}
