// Package repository define el contrato de persistencia de claves del stamper.
//
// El contrato es independiente del almacenamiento subyacente (memoria,
// FileSystem, BoltDB, Redis, PostgreSQL). Las implementaciones concretas viven
// en internal/store/adapters/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│              stamper.Manager (único mutador)         │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (KeyStore, KeyRecord)      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	     ┌──────────┬───────┼────────┬──────────┐
//	     ▼          ▼       ▼        ▼          ▼
//	  memory       fs     bolt     redis        pg
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Un registro por Role ("active", "pending") dentro de un Namespace
//   - Get devuelve ErrNotFound (nunca StorageError) cuando el rol está vacío
//   - Errores de I/O se envuelven en *StorageError y no se reintentan
package repository
