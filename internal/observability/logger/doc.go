// Package logger provee el logger Zap del stamper con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request o comando lleva su logger "scoped"
//     (request_id, op, key_id) sin crear un nuevo core.
//   - Entornos: "dev" consola con colores, "prod" JSON, "test" descarta todo.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// Con contexto:
//
//	logger.From(ctx).Info("key rotated", logger.KeyID(info.KeyID))
//
// Nunca loguear material privado ni el stamp completo; KeyID y PublicKey son públicos.
package logger
