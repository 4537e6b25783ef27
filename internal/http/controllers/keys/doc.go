// Package keys expone por HTTP el ciclo de vida de la clave de firma, el
// stamping de payloads y la verificación de stamps.
//
// Rutas (montadas por router):
//
//	GET  /v1/keys               info de la clave activa y pendiente
//	GET  /v1/keys/expiration    estado de expiración
//	POST /v1/keys/init          Init
//	POST /v1/keys/rotate        RotateKeyPair
//	POST /v1/keys/commit        CommitRotation ({"authenticatorId": "..."})
//	POST /v1/keys/rollback      RollbackRotation
//	POST /v1/keys/reset         ResetKeyPair
//	DELETE /v1/keys             Clear
//	POST /v1/stamp              body crudo → X-Phantom-Stamp
//	POST /v1/verify             X-Phantom-Stamp + body crudo → resultado
package keys
