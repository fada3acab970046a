package main

// maxCascades matches the lightViewProjection array length in sceneFragSrc.
const maxCascades = 4

const sceneVertSrc = `#version 410 core
in vec3 position;
in vec3 normal;
in vec2 uv;
in vec4 color;

uniform mat4 model;
uniform mat4 viewProjection;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;
out vec4 vColor;

void main() {
    vec4 world = model * vec4(position, 1.0);
    vWorldPos = world.xyz;
    vNormal   = mat3(model) * normal;
    vUV       = uv;
    vColor    = color;
    gl_Position = viewProjection * world;
}
`

const sceneFragSrc = `#version 410 core
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;
in vec4 vColor;

out vec4 outColor;

uniform sampler2D      albedoMap;
uniform vec4           albedo;
uniform vec3           emissive;
uniform vec3           sunDirection;
uniform vec3           sunColor;
uniform vec3           ambient;
uniform vec3           eyePosition;
uniform sampler2DArray shadowMap;
uniform mat4           lightViewProjection[4];
uniform int            cascades;
uniform float          cascadeSize;

// 3x3 PCF against the cascade covering this distance from the eye.
float shadowFactor(vec3 worldPos, float ndotl) {
    int   layer = min(int(length(worldPos - eyePosition) / cascadeSize), cascades - 1);
    vec4  p     = lightViewProjection[layer] * vec4(worldPos, 1.0);
    vec3  proj  = p.xyz / p.w * 0.5 + 0.5;
    if (proj.z > 1.0) {
        return 1.0;
    }
    float bias  = max(0.005 * (1.0 - ndotl), 0.0005);
    vec2  texel = 1.0 / vec2(textureSize(shadowMap, 0).xy);
    float lit   = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            float d = texture(shadowMap, vec3(proj.xy + vec2(x, y) * texel, float(layer))).r;
            lit += proj.z - bias > d ? 0.0 : 1.0;
        }
    }
    return lit / 9.0;
}

void main() {
    vec4  base  = texture(albedoMap, vUV) * albedo * vColor;
    vec3  n     = normalize(vNormal);
    float ndotl = max(dot(n, -sunDirection), 0.0);
    vec3  light = ambient + sunColor * ndotl * shadowFactor(vWorldPos, ndotl);
    outColor = vec4(base.rgb * light + emissive, base.a);
}
`

const shadowVertSrc = `#version 410 core
in vec3 position;

uniform mat4 model;
uniform mat4 lightViewProjection;

void main() {
    gl_Position = lightViewProjection * model * vec4(position, 1.0);
}
`

const shadowFragSrc = `#version 410 core
void main() {
}
`
