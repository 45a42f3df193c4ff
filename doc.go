// Package assembly builds JAR, ZIP and TAR archives from filesets.
//
// An [Assembler] collects any number of filesets (see the fileset package),
// explicit directories and header attributes, then writes them into a
// single archive with [Assembler.Build]. The same protocol drives every
// format:
//   - each fileset is listed once, yielding files and the directories they need
//   - files are deduplicated by relative path and directories by name, with
//     the first registration winning
//   - directories are written first, sorted by name, then files sorted by
//     relative path, each carrying its own mode, owner and timestamps
//
// # Quick Start
//
//	a := assembly.New("build/app.jar", assembly.FormatJar)
//	if err := a.AddFileSet(fileset.New("build/classes")); err != nil {
//	    return err
//	}
//	if err := a.EnsureVendor("Example Corp", "1.2.0"); err != nil {
//	    return err
//	}
//	res, err := a.Build(ctx)
//
// # Headers
//
// Header attributes form a [Manifest]. A JAR stores it as
// META-INF/MANIFEST.MF, a ZIP as the archive comment, and the tar formats
// as a PAX global header.
//
// # Results
//
// Build returns the number of entries written and an OCI descriptor of the
// output, so archives can be referenced by digest.
package assembly
