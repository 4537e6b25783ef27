// Package keycrypto es el límite criptográfico del stamper.
//
// Las claves privadas sólo existen dentro de un *KeyHandle opaco: no hay
// accessor exportado para sus bytes, y el handle se niega a serializarse
// (JSON, texto). Para persistir un handle, el Provider lo sella con una
// clave maestra (ver internal/security/secretbox); sólo un Provider con la
// misma clave puede reabrirlo.
//
// Algoritmos soportados:
//   - Ed25519 (default)
//   - Dilithium3 (post-cuántico, github.com/cloudflare/circl)
package keycrypto
