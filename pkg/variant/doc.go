// Package variant computes the build variants of a component from its
// independent configuration axes.
//
// # Overview
//
// A component declares one Axis per dimension (operating system, build type,
// linkage, ...) together with the candidate values of each axis. The package
// expands the candidates into a Space (the cartesian product, last axis
// varying fastest), wraps every combination into a BuildVariant, and prunes
// combinations with cross-axis filters.
//
// # Components
//
// Axis and Coordinate: typed identity tokens and (axis, value) pairs. An
// axis may also hold the Absent coordinate, meaning the dimension is known
// but has no value in that variant.
//
// Tuple and Space: axis-unique coordinate sequences and the immutable
// collection of sibling tuples they are named against.
//
// BuildVariant: a tuple plus its naming. AllDimensions lists every named
// dimension; AmbiguousDimensions keeps only the ones that vary across the
// siblings, so labels omit what is constant for the whole component.
//
// AxisFilter: OnlyOn, ExceptOn, OnlyIf and ExceptIf relate the current
// axis to another one. A filter about an axis the variant does not hold
// never excludes it.
//
// DimensionBuilder and VariantDimensions: immutable registration of an axis
// with its validators and filters, and the per-component registry that
// validates eagerly and resolves the filtered variants.
//
// # Usage Example
//
//	os := variant.NewAxis[OS]("os")
//	linkage := variant.NewAxis[Linkage]("linkage")
//
//	osDim, _ := variant.NewDimension[OS]().Axis(os).Build()
//	linkageDim, _ := variant.NewDimension[Linkage]().
//	    Axis(linkage).
//	    Constrain(variant.OnlyOn(linkage, os, Linux)).
//	    Build()
//
//	dims := variant.NewVariantDimensions("library")
//	if err := dims.Register(osDim.With(Linux, Windows)); err != nil {
//	    return err
//	}
//	if err := dims.Register(linkageDim.With(Shared, Static)); err != nil {
//	    return err
//	}
//	variants, err := dims.BuildVariants()
//
// # Concurrency
//
// Every value produced by the package is immutable and can be shared
// between goroutines. The package performs no I/O and never blocks.
package variant
