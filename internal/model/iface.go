package model

// PackageWriter appends accepted packages.
type PackageWriter interface {
	Append(p Package) bool
}

// PackageReader provides the read-side contract for the List operation.
type PackageReader interface {
	Snapshot() []Package
	Len() int
	Cap() int
	Total() uint64
}

// PackageStore is the unified contract used by the HTTP surface.
type PackageStore interface {
	PackageWriter
	PackageReader
	Reset()
}
