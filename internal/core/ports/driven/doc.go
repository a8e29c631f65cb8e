// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - TextEmbedder / CompositeEmbedder: Unit-normalised (fused) vectors for text
//   - VectorIndex / IndexStore: Batch-built inner-product search and its artifacts
//   - MetadataStore: Chunk metadata persistence
//   - BaselineStore: Doctrinal baseline persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
