package lang

func init() {
	Register(&Spec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item"},
		ContainerNodeTypes: []string{
			"struct_item",
			"enum_item",
			"trait_item",
			"impl_item",
			"type_item",
			"mod_item",
		},
		ContainerKind: map[string]Kind{
			"struct_item": KindStruct,
			"enum_item":   KindEnum,
			"trait_item":  KindTrait,
			"impl_item":   KindStruct, // impl blocks contribute methods to their Self type, not a Symbol
			"type_item":   KindType,
			"mod_item":    KindModule,
		},
		ConstantNodeTypes: []string{"const_item", "static_item"},
		ModuleNodeTypes:   []string{"source_file", "mod_item"},
		VariableNodeTypes: []string{"let_declaration"},
	})
}
