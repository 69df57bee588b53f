package compiler

import "strings"

// populateMetadata builds the reflection tables described in spec §4.5.3
// from the already-compiled function prototypes: every prototype whose
// name is `Type::method` contributes a MethodDefinition (and, as its body,
// a MethodBody) under that type's TypeDefinition, interning field/property
// entries is left to the VM's own per-Instance field map since SwiftScript
// has no separate compile-time field layout to intern ahead of it.
func populateMetadata(asm *Assembly) {
	typeIndex := map[string]int{}
	for _, fn := range asm.Functions {
		typeName, methodName, ok := splitQualifiedName(fn.Name)
		if !ok {
			continue
		}
		idx, known := typeIndex[typeName]
		if !known {
			idx = len(asm.TypeDefinitions)
			typeIndex[typeName] = idx
			asm.TypeDefinitions = append(asm.TypeDefinitions, TypeDefinition{
				Name:        typeName,
				MethodStart: len(asm.MethodDefinitions),
			})
		}
		flags := 0
		if fn.IsMutating {
			flags |= MethodFlagMutating
		}
		if fn.IsOverride {
			flags |= MethodFlagOverride
		}
		bodyIndex := len(asm.MethodBodies)
		asm.MethodBodies = append(asm.MethodBodies, MethodBody{
			Code:          fn.Code,
			LineInfo:      fn.LineInfo,
			MaxStackDepth: fn.MaxStackDepth,
		})
		asm.MethodDefinitions = append(asm.MethodDefinitions, MethodDefinition{
			Name:            methodName,
			Flags:           flags,
			SignatureOffset: packSignature(asm, fn),
			BodyIndex:       bodyIndex,
		})
		def := &asm.TypeDefinitions[idx]
		def.MethodCount = len(asm.MethodDefinitions) - def.MethodStart
	}
}

// splitQualifiedName reverses compileMethod/compileAccessorBody's
// "Type::member" naming convention.
func splitQualifiedName(name string) (typeName, member string, ok bool) {
	i := strings.Index(name, "::")
	if i < 0 {
		return "", "", false
	}
	return name[:i], name[i+2:], true
}

// packSignature appends a single byte holding the function's parameter
// count to SignatureBlob and returns its offset. No return type id or
// parameter type ids are recorded.
func packSignature(asm *Assembly, fn FunctionPrototype) int {
	offset := len(asm.SignatureBlob)
	asm.SignatureBlob = append(asm.SignatureBlob, byte(len(fn.ParamNames)))
	return offset
}

// resolveEntryPoint records in asm.EntryFunction the index of the global
// `main` function, or failing that of the first type's static `main`.
// The VM runs the top-level Code first and then calls that function.
func resolveEntryPoint(asm *Assembly) {
	for i, fn := range asm.Functions {
		if fn.Name == "main" {
			asm.EntryFunction = i
			return
		}
	}
	for i, fn := range asm.Functions {
		if strings.HasSuffix(fn.Name, "::main") {
			asm.EntryFunction = i
			return
		}
	}
}
